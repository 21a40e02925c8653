package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"autodraft.app/assistant/internal/model"
)

// BuildRawMessage renders req as an RFC 2822 message encoded for the Gmail
// "raw" field (base64url). An HTML body produces multipart/alternative with the
// text body as the plain part.
func BuildRawMessage(req model.DraftRequest) (string, error) {
	var buf bytes.Buffer

	writeHeader(&buf, "To", req.To)
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", req.Subject))
	writeHeader(&buf, "MIME-Version", "1.0")

	if req.HTMLBody == "" {
		writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
		writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, req.TextBody); err != nil {
			return "", err
		}
		return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	writeHeader(&buf, "Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, mw.Boundary()))
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		content     string
	}{
		{`text/plain; charset="utf-8"`, req.TextBody},
		{`text/html; charset="utf-8"`, req.HTMLBody},
	}
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", p.contentType)
		header.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := mw.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("creating mime part: %w", err)
		}
		if err := writeQuotedPrintable(w, p.content); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}
	buf.Write(body.Bytes())

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(strings.NewReplacer("\r", "", "\n", "").Replace(value))
	buf.WriteString("\r\n")
}

func writeQuotedPrintable(w io.Writer, content string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	return qp.Close()
}

// decodeBodyData decodes Gmail body data, which is base64url with or without padding.
func decodeBodyData(data string) (string, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decoding body data: %w", err)
	}
	return string(b), nil
}

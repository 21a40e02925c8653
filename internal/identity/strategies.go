package identity

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"autodraft.app/assistant/internal/mail"
	"autodraft.app/assistant/internal/model"
)

func (r *Resolver) fromInvitedLine(_ context.Context, q query) (model.CandidateIdentity, bool) {
	addr := InvitedAddress(q.Notes, r.cfg.HostName)
	if addr == "" {
		return model.CandidateIdentity{}, false
	}
	return model.CandidateIdentity{DisplayName: q.Name, Address: addr, Source: model.IdentitySourceInvitedLine}, true
}

func (r *Resolver) fromInboxSender(ctx context.Context, q query) (model.CandidateIdentity, bool) {
	if q.Name == "" {
		return model.CandidateIdentity{}, false
	}
	for _, msg := range r.search(ctx, "from:"+mail.QuoteTerm(q.Name), r.cfg.SearchLimit) {
		if addr := ParseAddressHeader(msg.From, q.Name, r.cfg.SystemTokens); addr != "" {
			return model.CandidateIdentity{DisplayName: q.Name, Address: addr, Source: model.IdentitySourceInboxSender}, true
		}
	}
	return model.CandidateIdentity{}, false
}

func (r *Resolver) fromSentRecipient(ctx context.Context, q query) (model.CandidateIdentity, bool) {
	if q.Name == "" {
		return model.CandidateIdentity{}, false
	}
	for _, msg := range r.search(ctx, "in:sent to:"+mail.QuoteTerm(q.Name), r.cfg.SearchLimit) {
		if addr := ParseAddressHeader(msg.To, q.Name, r.cfg.SystemTokens); addr != "" {
			return model.CandidateIdentity{DisplayName: q.Name, Address: addr, Source: model.IdentitySourceSentRecipient}, true
		}
	}
	return model.CandidateIdentity{}, false
}

func (r *Resolver) fromSenderHeader(ctx context.Context, q query) (model.CandidateIdentity, bool) {
	for _, msg := range r.search(ctx, "from:"+q.Address, r.cfg.SearchLimit) {
		if name := DisplayNameFromSender(msg.From); utf8.RuneCountInString(name) > 2 {
			return model.CandidateIdentity{DisplayName: name, Address: q.Address, Source: model.IdentitySourceSenderHeader}, true
		}
	}
	return model.CandidateIdentity{}, false
}

func (r *Resolver) fromAddressLocalPart(_ context.Context, q query) (model.CandidateIdentity, bool) {
	name := NameFromAddress(q.Address)
	if name == "" {
		return model.CandidateIdentity{}, false
	}
	return model.CandidateIdentity{DisplayName: name, Address: q.Address, Source: model.IdentitySourceAddressLocal}, true
}

const fullName = `([A-Z][a-zà-ÿ]+ [A-Z][a-zà-ÿ]+)`

var internalSubjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Re:\s*)?` + fullName + `\s+artist\s+info`),
	regexp.MustCompile(`(?i)(?:Re:\s*)?` + fullName + `\s*[-–]\s*artist`),
}

func internalBodyPatterns(address string) []*regexp.Regexp {
	addr := regexp.QuoteMeta(address)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)` + fullName + `\s*<` + addr + `>`),
		regexp.MustCompile(`(?i)` + fullName + `\s*\(` + addr + `\)`),
		regexp.MustCompile(`(?i)` + fullName + `\s*[-–]\s*` + addr),
	}
}

func (r *Resolver) fromInternalMail(ctx context.Context, q query) (model.CandidateIdentity, bool) {
	bodyPatterns := internalBodyPatterns(q.Address)
	found := func(name string) (model.CandidateIdentity, bool) {
		return model.CandidateIdentity{DisplayName: name, Address: q.Address, Source: model.IdentitySourceInternalMail}, true
	}

	for _, sender := range r.cfg.InternalSenders {
		for _, msg := range r.search(ctx, fmt.Sprintf("from:%s %s", sender, q.Address), r.cfg.InternalLimit) {
			for _, re := range internalSubjectPatterns {
				if m := re.FindStringSubmatch(msg.Subject); m != nil {
					return found(m[1])
				}
			}
			for _, re := range bodyPatterns {
				if m := re.FindStringSubmatch(msg.Body); m != nil {
					return found(m[1])
				}
			}
		}
	}
	return model.CandidateIdentity{}, false
}

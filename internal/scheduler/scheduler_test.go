package scheduler_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"autodraft.app/assistant/internal/gate"
	"autodraft.app/assistant/internal/scheduler"
)

var _ = Describe("Scheduler", func() {
	var (
		runner   *mockRunner
		observer *mockObserver
		cfg      scheduler.Config
	)

	BeforeEach(func() {
		runner = &mockRunner{}
		observer = &mockObserver{}
		cfg = scheduler.Config{Interval: 10 * time.Millisecond, Options: gate.RunOptions{DryRun: true}}
	})

	start := func(s *scheduler.Scheduler) (context.CancelFunc, chan error) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()
		DeferCleanup(cancel)
		return cancel, done
	}

	It("runs immediately and repeats on the interval with the configured options", func() {
		cancel, done := start(scheduler.New(runner, cfg).WithObserver(observer))

		Eventually(runner.Calls).Should(BeNumerically(">=", 3))
		cancel()
		Eventually(done).Should(Receive(BeNil()))

		for _, opts := range runner.opts {
			Expect(opts.DryRun).To(BeTrue())
		}
		Expect(observer.Seen()).NotTo(BeEmpty())
	})

	It("keeps looping after failed and panicking runs", func() {
		runner.runFn = func(_ context.Context, n int) (*gate.RunReport, error) {
			switch n {
			case 1:
				return nil, errors.New("invalid_grant")
			case 2:
				panic("nil map")
			}
			return &gate.RunReport{RunID: int64(n)}, nil
		}
		cancel, done := start(scheduler.New(runner, cfg).WithObserver(observer))

		Eventually(runner.Calls).Should(BeNumerically(">=", 3))
		cancel()
		Eventually(done).Should(Receive(BeNil()))

		seen := observer.Seen()
		Expect(seen[0].err).To(MatchError("invalid_grant"))
		Expect(seen[1].err).To(MatchError(ContainSubstring("panic: nil map")))
		Expect(seen[2].err).NotTo(HaveOccurred())
		Expect(seen[2].report.RunID).To(Equal(int64(3)))
	})

	It("releases the lock after every run", func() {
		locker := &mockLocker{}
		cancel, done := start(scheduler.New(runner, cfg).WithLock(locker))

		Eventually(runner.Calls).Should(BeNumerically(">=", 2))
		cancel()
		Eventually(done).Should(Receive())

		acquired, released := locker.counts()
		Expect(acquired).To(BeNumerically(">=", 2))
		Expect(released).To(Equal(acquired))
	})

	It("skips runs while another replica holds the lock", func() {
		locker := &mockLocker{held: true}
		cancel, done := start(scheduler.New(runner, cfg).WithLock(locker).WithObserver(observer))

		Consistently(runner.Calls, 50*time.Millisecond).Should(BeZero())
		cancel()
		Eventually(done).Should(Receive())
		Expect(observer.Seen()).To(BeEmpty())
	})

	It("reports lock errors without running", func() {
		locker := &mockLocker{err: errors.New("connection refused")}
		cancel, done := start(scheduler.New(runner, cfg).WithLock(locker).WithObserver(observer))

		Eventually(func() int { return len(observer.Seen()) }).Should(BeNumerically(">=", 1))
		cancel()
		Eventually(done).Should(Receive())
		Expect(runner.Calls()).To(BeZero())
		Expect(observer.Seen()[0].err).To(MatchError(ContainSubstring("connection refused")))
	})

	It("returns when the context is cancelled", func() {
		cfg.Interval = time.Hour
		cancel, done := start(scheduler.New(runner, cfg))

		Eventually(runner.Calls).Should(Equal(1))
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})

package payment

import "github.com/go-kit/log"

// WithLogger sets the service logger.
func WithLogger(logger log.Logger) ServiceOption {
	return func(s *Service) {
		if logger == nil {
			panic("logger can't be nil")
		}
		s.log = logger
	}
}

// WithLocker sets the order-scoped lock held around reconciliation.
// Use a distributed locker when several instances share a store without row-level locks.
func WithLocker(l orderLocker) ServiceOption {
	return func(s *Service) {
		if l == nil {
			panic("locker can't be nil")
		}
		s.locker = l
	}
}

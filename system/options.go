package system

import "time"

type ServiceOption func(*Service)

func WithPauseDuration(d time.Duration) ServiceOption {
	return func(svc *Service) {
		svc.pauseDuration = d
	}
}

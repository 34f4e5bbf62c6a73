package datetimeprovider

import (
	"strconv"
	"time"
)

// Provider renders the current time as archive path partitions, always in UTC.
type Provider struct {
	now func() time.Time
}

func New(now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{now: now}
}

func (provider *Provider) Date() string {
	return provider.now().UTC().Format(time.DateOnly)
}

func (provider *Provider) Hour() string {
	return strconv.Itoa(provider.now().UTC().Hour())
}

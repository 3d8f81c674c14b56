package capture

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const robotsUserAgent = "fact-archiver"

// Politeness gates capture requests behind robots.txt and a shared rate
// limiter. Robots files are cached per host for the lifetime of the
// process; a host whose robots.txt cannot be fetched is treated as
// allowing everything.
type Politeness struct {
	client  *http.Client
	limiter *rate.Limiter

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

// NewPoliteness creates a Politeness allowing one request per interval
// across all hosts.
func NewPoliteness(interval time.Duration) *Politeness {
	return &Politeness{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		robots:  make(map[string]*robotstxt.RobotsData),
	}
}

// Acquire blocks until the rate limiter admits a request, then checks
// robots.txt for rawURL. Returns an error when the URL is malformed,
// disallowed, or the context expires while waiting.
func (p *Politeness) Acquire(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse capture url: %w", err)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	data := p.robotsFor(ctx, parsed)
	if data == nil {
		return nil
	}
	if !data.FindGroup(robotsUserAgent).Test(parsed.Path) {
		return fmt.Errorf("robots.txt disallows %s", rawURL)
	}
	return nil
}

func (p *Politeness) robotsFor(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	host := parsed.Scheme + "://" + parsed.Host

	p.mu.Lock()
	data, ok := p.robots[host]
	p.mu.Unlock()
	if ok {
		return data
	}

	data = p.fetchRobots(ctx, host)

	p.mu.Lock()
	p.robots[host] = data
	p.mu.Unlock()
	return data
}

func (p *Politeness) fetchRobots(ctx context.Context, host string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}

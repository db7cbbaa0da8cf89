package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// chromeSlot serializes all Chrome usage so only one instance runs at a time. Waiting for
// it honours ctx, so a caller's deadline also covers time spent queued.
var chromeSlot = semaphore.NewWeighted(1)

const (
	defaultChromeTimeout = 45 * time.Second
	settleDelay          = 2 * time.Second
)

// ChromeFetcher renders pages in a headless Chrome instance started per fetch.
type ChromeFetcher struct {
	execPath  string
	userAgent string
	debug     bool
}

func NewChromeFetcher(execPath, userAgent string, debug bool) *ChromeFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ChromeFetcher{execPath: execPath, userAgent: userAgent, debug: debug}
}

func (f *ChromeFetcher) Fetch(ctx context.Context, url string, opts Options) (*Document, error) {
	if f.execPath != "" {
		if _, err := os.Stat(f.execPath); err != nil {
			return nil, fmt.Errorf("%w: chrome binary %s: %v", ErrUnavailable, f.execPath, err)
		}
	}

	if err := chromeSlot.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for chrome: %w", err)
	}
	defer chromeSlot.Release(1)

	chromeDir, err := os.MkdirTemp("", "lottostats_chrome_")
	if err != nil {
		return nil, fmt.Errorf("create chrome temp dir: %w", err)
	}
	defer os.RemoveAll(chromeDir)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	userAgent := f.userAgent
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(chromeDir),
		chromedp.UserAgent(userAgent),
	)
	if f.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if f.debug {
			slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
		}
	}))
	defer cancelTask()

	var (
		statusMu sync.Mutex
		status   int
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument {
			return
		}
		statusMu.Lock()
		if status == 0 {
			status = int(e.Response.Status)
		}
		statusMu.Unlock()
	})

	if err := chromedp.Run(taskCtx, network.Enable(), chromedp.Navigate(url)); err != nil {
		return nil, classifyChromeError(err)
	}

	if opts.WaitCondition != "" {
		// A missing element is not fatal: block pages never render it and still need inspecting.
		waitCtx, cancelWait := context.WithTimeout(taskCtx, timeout/2)
		if err := chromedp.Run(waitCtx, chromedp.WaitReady(opts.WaitCondition, chromedp.ByQuery)); err != nil {
			slog.Debug("Wait condition not met", "url", url, "selector", opts.WaitCondition, "error", err)
		}
		cancelWait()
	} else if err := chromedp.Run(taskCtx, chromedp.Sleep(settleDelay)); err != nil {
		return nil, classifyChromeError(err)
	}

	var markup string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return nil, classifyChromeError(err)
	}

	statusMu.Lock()
	code := status
	statusMu.Unlock()
	if code != 0 && code != 200 {
		return nil, &BlockedError{URL: url, Status: code, Reason: "unexpected status"}
	}

	return NewDocument(url, code, []byte(markup))
}

func classifyChromeError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || strings.Contains(err.Error(), "executable file not found") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("chromedp: %w", err)
}

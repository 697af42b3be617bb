// Package inbox implements save-by-email: links mailed to a watched IMAP mailbox become bookmarks.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/models"
	"github.com/ternarybob/litemark/internal/services/bookmarks"
)

var (
	// ErrNotConfigured is returned when host, username or password is missing
	ErrNotConfigured = errors.New("mailbox is not configured")
	// ErrCheckInProgress is returned when a check is requested while one is running
	ErrCheckInProgress = errors.New("mailbox check already running")
)

// Settings supplies the mailbox configuration and records completed checks
type Settings interface {
	IMAPConfig(ctx context.Context) (models.IMAPConfig, error)
	RecordInboxPoll(ctx context.Context, at string) error
}

// BookmarkWriter is the part of the bookmark service the inbox needs
type BookmarkWriter interface {
	List(ctx context.Context, includeHidden bool) ([]*models.Bookmark, error)
	Create(ctx context.Context, req bookmarks.CreateRequest) (*models.Bookmark, error)
}

// Result counts what one mailbox check did
type Result struct {
	Messages int      `json:"messages"`
	Links    int      `json:"links"`
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	AddedIDs []string `json:"added_ids"`
}

// Service checks the mailbox for unseen messages, saves their links and marks them seen
type Service struct {
	settings Settings
	writer   BookmarkWriter
	timeout  time.Duration
	logger   arbor.ILogger

	checkMu sync.Mutex // held for the duration of a check

	pollMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

// NewService creates an inbox service. timeout bounds dialing and each IMAP command.
func NewService(settings Settings, writer BookmarkWriter, timeout time.Duration, logger arbor.ILogger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		settings: settings,
		writer:   writer,
		timeout:  timeout,
		logger:   logger,
	}
}

// Check processes every unseen message once. Messages are marked seen only after
// their links were saved, so a failed check is retried on the next one.
func (s *Service) Check(ctx context.Context) (*Result, error) {
	if !s.checkMu.TryLock() {
		return nil, ErrCheckInProgress
	}
	defer s.checkMu.Unlock()

	cfg, err := s.settings.IMAPConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.IsComplete() {
		return nil, ErrNotConfigured
	}

	c, err := s.connect(cfg)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	messages, err := s.fetchUnseen(c, cfg.Mailbox)
	if err != nil {
		return nil, err
	}

	result, processed, err := s.saveLinks(ctx, cfg, messages)
	if len(processed) > 0 {
		if markErr := markSeen(c, processed); markErr != nil {
			s.logger.Warn().Err(markErr).Int("messages", len(processed)).Msg("Failed to mark messages seen")
			if err == nil {
				err = markErr
			}
		}
	}
	if err != nil {
		return result, err
	}

	if recordErr := s.settings.RecordInboxPoll(ctx, time.Now().Format(time.RFC3339)); recordErr != nil {
		s.logger.Warn().Err(recordErr).Msg("Failed to record mailbox check time")
	}

	s.logger.Info().
		Int("messages", result.Messages).
		Int("links", result.Links).
		Int("added", result.Added).
		Int("skipped", result.Skipped).
		Msg("Mailbox checked")

	return result, nil
}

// TestConnection logs in and selects the mailbox without touching any message
func (s *Service) TestConnection(ctx context.Context) error {
	cfg, err := s.settings.IMAPConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.IsComplete() {
		return ErrNotConfigured
	}

	c, err := s.connect(cfg)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select(cfg.Mailbox, true); err != nil {
		return fmt.Errorf("failed to select %s: %w", cfg.Mailbox, err)
	}
	return nil
}

func (s *Service) connect(cfg models.IMAPConfig) (*client.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: s.timeout}

	var (
		c   *client.Client
		err error
	)
	if cfg.UseTLS {
		c, err = client.DialWithDialerTLS(dialer, addr, nil)
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	c.Timeout = s.timeout

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	return c, nil
}

func (s *Service) fetchUnseen(c *client.Client, mailbox string) ([]parsedMessage, error) {
	mbox, err := c.Select(mailbox, false)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", mailbox, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	fetched := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, fetched)
	}()

	parsed := make([]parsedMessage, 0, len(uids))
	for msg := range fetched {
		if msg == nil {
			continue
		}
		parsed = append(parsed, s.parse(msg))
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return parsed, nil
}

// parse extracts links from a fetched message, falling back to the envelope subject
// when the body cannot be read
func (s *Service) parse(msg *imap.Message) parsedMessage {
	pm := parsedMessage{UID: msg.Uid}
	if msg.Envelope != nil {
		pm.Subject = msg.Envelope.Subject
	}

	for _, body := range msg.Body {
		subject, links, err := parseMessage(body)
		if subject != "" {
			pm.Subject = subject
		}
		pm.Links = links
		if err != nil {
			s.logger.Warn().Err(err).Int("uid", int(msg.Uid)).Msg("Failed to parse message body")
		}
		break
	}

	if len(pm.Links) == 0 {
		pm.Links = textLinks(pm.Subject)
	}
	return pm
}

func (s *Service) saveLinks(ctx context.Context, cfg models.IMAPConfig, messages []parsedMessage) (*Result, []uint32, error) {
	result := &Result{AddedIDs: []string{}}
	processed := make([]uint32, 0, len(messages))
	if len(messages) == 0 {
		return result, processed, nil
	}

	existing, err := s.writer.List(ctx, true)
	if err != nil {
		return result, processed, err
	}
	known := make(map[string]bool, len(existing))
	for _, b := range existing {
		known[normalizeURL(b.URL)] = true
	}

	var category *string
	if cfg.Category != "" {
		category = &cfg.Category
	}

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return result, processed, err
		}
		result.Messages++

		subject := cleanSubject(msg.Subject)
		for _, link := range msg.Links {
			result.Links++
			key := normalizeURL(link)
			if known[key] {
				result.Skipped++
				continue
			}

			title := link
			if len(msg.Links) == 1 && subject != "" && normalizeURL(subject) != key {
				title = subject
			}

			b, err := s.writer.Create(ctx, bookmarks.CreateRequest{Title: title, URL: link, Category: category})
			if err != nil {
				return result, processed, fmt.Errorf("failed to save %s: %w", link, err)
			}
			known[key] = true
			result.Added++
			result.AddedIDs = append(result.AddedIDs, b.ID)
		}
		processed = append(processed, msg.UID)
	}

	return result, processed, nil
}

func markSeen(c *client.Client, uids []uint32) error {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("failed to mark messages seen: %w", err)
	}
	return nil
}

// StartPolling checks the mailbox every interval until StopPolling. A non-positive
// interval does nothing; calling it again restarts the loop with the new interval.
func (s *Service) StartPolling(interval time.Duration) {
	s.StopPolling()
	if interval <= 0 {
		return
	}

	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	common.SafeGo(s.logger, "inbox-poller", func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.poll()
			}
		}
	})

	s.logger.Info().Dur("interval", interval).Msg("Mailbox polling started")
}

func (s *Service) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*s.timeout)
	defer cancel()

	_, err := s.Check(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		s.logger.Debug().Msg("Mailbox polling skipped, not configured")
	case errors.Is(err, ErrCheckInProgress):
		s.logger.Debug().Msg("Mailbox polling skipped, check in progress")
	default:
		s.logger.Warn().Err(err).Msg("Mailbox poll failed")
	}
}

// StopPolling stops the poll loop and waits for a poll in flight
func (s *Service) StopPolling() {
	s.pollMu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.pollMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

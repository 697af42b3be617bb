package inbox

import (
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// parsedMessage is what one email contributes: its subject and the links found in it
type parsedMessage struct {
	UID     uint32
	Subject string
	Links   []string
}

// parseMessage reads a raw RFC 5322 message. Links come from the subject, text/plain
// parts and the anchors of text/html parts; attachments are ignored.
func parseMessage(r io.Reader) (subject string, links []string, err error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	subject, _ = mr.Header.Subject()
	links = append(links, textLinks(subject)...)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return subject, uniqueLinks(links), fmt.Errorf("failed to read next part: %w", err)
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()

		switch {
		case strings.HasPrefix(contentType, "text/plain"), contentType == "":
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return subject, uniqueLinks(links), fmt.Errorf("failed to read body: %w", err)
			}
			links = append(links, textLinks(string(body))...)
		case strings.HasPrefix(contentType, "text/html"):
			found, err := htmlLinks(part.Body)
			if err != nil {
				return subject, uniqueLinks(links), fmt.Errorf("failed to parse HTML body: %w", err)
			}
			links = append(links, found...)
		}
	}

	return subject, uniqueLinks(links), nil
}

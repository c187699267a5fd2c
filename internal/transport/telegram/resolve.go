package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChatLink is returned when a chat identifier is not one of the
// accepted forms.
var ErrInvalidChatLink = errors.New("invalid chat link")

// ResolveChatLink normalizes a chat identifier to something the Bot API
// accepts as a recipient. Accepted forms:
//
//	@username            kept as-is
//	-100<digits>         kept as-is (supergroup/channel numeric ID)
//	https://t.me/<name>  rewritten as @<name>
func ResolveChatLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: identifier is empty", ErrInvalidChatLink)
	}

	if strings.HasPrefix(link, "@") || strings.HasPrefix(link, "-100") {
		return link, nil
	}

	if name, ok := strings.CutPrefix(link, "https://t.me/"); ok {
		if name == "" {
			return "", fmt.Errorf("%w: no username in link", ErrInvalidChatLink)
		}
		return "@" + name, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidChatLink, link)
}

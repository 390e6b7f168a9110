package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyObject    = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications"
)

// desktopSender keeps one replaceable freedesktop notification alive per
// process so listening and error states overwrite each other.
type desktopSender struct {
	appName string

	mu sync.Mutex
	id uint32
}

func (d *desktopSender) notify(ctx context.Context, timeoutMS int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := desktopNotify(ctx, d.appName, d.id, text, timeoutMS)
	if err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *desktopSender) dismiss(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.id == 0 {
		return nil
	}
	id := d.id
	d.id = 0
	_, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

// desktopNotify shows or replaces a notification and returns the id the
// server assigned to it.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	// app_name replaces_id app_icon summary body actions hints expire_timeout
	reply, err := busctl(ctx, "Notify", "susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		"",
		summary,
		"",
		"0",
		"0",
		strconv.Itoa(timeoutMS),
	)
	if err != nil {
		return 0, err
	}

	kind, value, ok := strings.Cut(reply, " ")
	if !ok || kind != "u" {
		return 0, fmt.Errorf("Notify: invalid response %q", reply)
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("Notify: parse id %q: %w", value, err)
	}
	return uint32(id), nil
}

// busctl calls method on the session notification service and returns the
// trimmed reply.
func busctl(ctx context.Context, method string, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notifyService, notifyObject, notifyInterface, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	if err != nil {
		if reply == "" {
			return "", fmt.Errorf("%s: %w", method, err)
		}
		return "", fmt.Errorf("%s: %w (%s)", method, err, reply)
	}
	return reply, nil
}

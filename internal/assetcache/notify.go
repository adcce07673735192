package assetcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tellsiddh/collections/internal/logger"
)

const (
	NotificationTitle = "My Collections"
	ActionExplore     = "explore"
	ActionClose       = "close"

	notificationIcon = "/icon-192.png"
	appRootURL       = "/"
)

// Notification is what gets shown for a push message.
type Notification struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Badge   string               `json:"badge"`
	Vibrate []int                `json:"vibrate"`
	Data    NotificationData     `json:"data"`
	Actions []NotificationAction `json:"actions"`
}

type NotificationData struct {
	DateOfArrival int64  `json:"dateOfArrival"`
	PrimaryKey    string `json:"primaryKey"`
}

type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
}

// pushPayload is the JSON body of a push message.
type pushPayload struct {
	Body string `json:"body"`
}

// Presenter displays notifications to the user.
type Presenter interface {
	Show(ctx context.Context, n Notification) error
}

// Opener opens or focuses an app window.
type Opener interface {
	OpenWindow(ctx context.Context, url string) error
}

// ClickResult describes what a notification click did.
type ClickResult struct {
	Closed bool   `json:"closed"`
	Opened string `json:"opened,omitempty"`
}

// Notifier turns push messages into notifications and handles clicks on them.
type Notifier struct {
	presenter Presenter
	opener    Opener
	logger    logger.Logger
	now       func() time.Time
}

// NewNotifier creates a notifier. A nil presenter or opener only logs.
func NewNotifier(presenter Presenter, opener Opener, log logger.Logger) *Notifier {
	if presenter == nil {
		presenter = LogPresenter{Logger: log}
	}
	if opener == nil {
		opener = LogOpener{Logger: log}
	}
	return &Notifier{
		presenter: presenter,
		opener:    opener,
		logger:    log,
		now:       time.Now,
	}
}

// Push shows a notification for payload. An empty payload shows nothing
// and returns nil.
func (n *Notifier) Push(ctx context.Context, payload []byte) (*Notification, error) {
	n.logger.Info("push received", logger.Int("bytes", len(payload)))
	if len(payload) == 0 {
		return nil, nil
	}

	var p pushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid push payload: %w", err)
	}

	note := Notification{
		Title:   NotificationTitle,
		Body:    p.Body,
		Icon:    notificationIcon,
		Badge:   notificationIcon,
		Vibrate: []int{100, 50, 100},
		Data: NotificationData{
			DateOfArrival: n.now().UnixMilli(),
			PrimaryKey:    "2",
		},
		Actions: []NotificationAction{
			{Action: ActionExplore, Title: "View Collections", Icon: notificationIcon},
			{Action: ActionClose, Title: "Close", Icon: notificationIcon},
		},
	}

	if err := n.presenter.Show(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to show notification: %w", err)
	}
	return &note, nil
}

// Click handles a click on a notification. "close" only dismisses it; the
// explore action and a plain tap open the app root.
func (n *Notifier) Click(ctx context.Context, action string) (ClickResult, error) {
	n.logger.Info("notification click received", logger.String("action", action))

	res := ClickResult{Closed: true}
	if action == ActionClose {
		return res, nil
	}

	if err := n.opener.OpenWindow(ctx, appRootURL); err != nil {
		return res, fmt.Errorf("failed to open app window: %w", err)
	}
	res.Opened = appRootURL
	return res, nil
}

// LogPresenter writes notifications to the log.
type LogPresenter struct {
	Logger logger.Logger
}

func (p LogPresenter) Show(_ context.Context, n Notification) error {
	p.Logger.Info("notification",
		logger.String("title", n.Title),
		logger.String("body", n.Body))
	return nil
}

// LogOpener writes window-open requests to the log.
type LogOpener struct {
	Logger logger.Logger
}

func (o LogOpener) OpenWindow(_ context.Context, url string) error {
	o.Logger.Info("open window requested", logger.String("url", url))
	return nil
}

package engine

import "github.com/sirupsen/logrus"

// Level is the severity of a user notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification 是面向用户的提示（保存成功、加载失败等）。
type Notification struct {
	Level       Level
	Message     string
	Description string
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(Notification)
}

// LogNotifier 把通知写入日志。
type LogNotifier struct {
	Logger logrus.FieldLogger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(msg Notification) {
	logger := n.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("notice", msg.Level.String())
	if msg.Description != "" {
		entry = entry.WithField("description", msg.Description)
	}
	if msg.Level == LevelError {
		entry.Error(msg.Message)
		return
	}
	entry.Info(msg.Message)
}

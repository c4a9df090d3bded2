//go:build linux

package notify

import (
	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"
	appName             = "Vyra"
	desktopEntry        = "vyra"
)

type dbusNotifier struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// New connects to the session bus. Without one it returns a notifier that
// drops everything.
func New(logger *log.Logger) Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Debug("desktop notifications unavailable", "err", err)
		return Disabled()
	}
	return &dbusNotifier{conn: conn, obj: conn.Object(dbusNotifyDest, dbusNotifyPath)}
}

func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}

	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		appName,
		notif.ReplacesID,
		notif.Icon,
		notif.Title,
		notif.Body,
		[]string{},
		hints,
		notif.Timeout,
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id).Err
}

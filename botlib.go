// Package botlib is the public surface of the bot framework: declare
// behaviors with a BotSpec, then run them with an App. The dispatch
// engine itself lives under internal/.
package botlib

import (
	"botlib/internal/app"
	"botlib/internal/core"
	"botlib/internal/transport"
	"botlib/internal/transport/telegram"
)

type (
	BotSpec    = core.BotSpec
	Call       = core.Call
	Descriptor = core.Descriptor
	ParamRole  = core.ParamRole
	UserRef    = core.UserRef

	Messenger        = core.Messenger
	PermissionOracle = core.PermissionOracle
	EventLog         = core.EventLog

	// Transport-level values handlers pass to the Messenger's send and
	// edit operations.
	ChatTarget  = transport.ChatTarget
	MessageRef  = transport.MessageRef
	SendOptions = transport.SendOptions
	FileRef     = transport.FileRef

	App = app.App
)

const (
	RoleChatID      = core.RoleChatID
	RoleUserID      = core.RoleUserID
	RoleMessenger   = core.RoleMessenger
	RolePermissions = core.RolePermissions
	RoleEventLog    = core.RoleEventLog
)

// NewBotSpec starts an empty behavior declaration.
func NewBotSpec() *BotSpec { return core.NewBotSpec() }

// NewApp loads the config at cfgPath and wires the declared bot.
func NewApp(cfgPath string, spec *BotSpec) (*App, error) { return app.New(cfgPath, spec) }

// ResolveChatLink normalizes a chat reference ("@name", "-100…" numeric ID,
// or a https://t.me/ link) to a form the transport can address.
func ResolveChatLink(link string) (string, error) { return telegram.ResolveChatLink(link) }

package farmbot

import (
	"github.com/kilianp07/farmbot/auth"
	"github.com/kilianp07/farmbot/core/broker"
)

// Farmbot exposes every component through one flat method surface.
type Farmbot struct {
	*Information
	*BasicCommands
	*MovementControls
	*Messages
	*Peripherals
	*Camera

	session *auth.Session
}

// New assembles the components around an authenticated API client and a
// connected broker. The options apply to every component.
func New(api API, b broker.Broker, session *auth.Session, opts ...Option) *Farmbot {
	info := NewInformation(api, b, opts...)
	return &Farmbot{
		Information:      info,
		BasicCommands:    NewBasicCommands(b, opts...),
		MovementControls: NewMovementControls(b, info, opts...),
		Messages:         NewMessages(api, b, opts...),
		Peripherals:      NewPeripherals(b, info, opts...),
		Camera:           NewCamera(b, opts...),
		session:          session,
	}
}

// Session returns the session holding the device token.
func (f *Farmbot) Session() *auth.Session { return f.session }

// Token returns the encoded bearer token, empty before login.
func (f *Farmbot) Token() string {
	if f.session == nil {
		return ""
	}
	return f.session.Info().Token
}

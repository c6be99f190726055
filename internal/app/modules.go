package app

import (
	"github.com/vk/leafkit/internal/push"
	"github.com/vk/leafkit/internal/registry"
	"github.com/vk/leafkit/modules/concat"
)

// coreModules is the definitive list of all modules that are compiled into
// the leafkit binary.
var coreModules = []registry.Module{
	&concat.Module{},
	&receiverModule{},
}

// receiverModule wires the push message receiver into the handler chain.
type receiverModule struct{}

func (m *receiverModule) Register(r *registry.Registry) {
	r.RegisterMessageHandler("receiver", push.NewReceiver().Handle)
}

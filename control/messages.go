// Package control implements the discriminated JSON control channel of
// spec §4.9/§6.3, multiplexed as UTF-8 text frames on the same
// transport as the binary node protocol. Modeled on the teacher's
// api/apc/actmsg.go: a single discriminator field routes to a handful
// of small, independently-marshaled payloads, using the same
// json-iterator codec.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package control

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/shaneholloman/logseq-spring-thing/cmn/nlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message type discriminators (spec §6.3).
const (
	TypeConnectionEstablished = "connection_established"
	TypeLoading               = "loading"
	TypeUpdatesStarted        = "updatesStarted"
	TypeSettings              = "settings"
	TypeValidationFailed      = "validation_failed"

	TypeRequestInitialData  = "requestInitialData"
	TypeEnableRandomization = "enableRandomization"
	TypePauseSimulation     = "pauseSimulation"
	TypeApplyForces         = "applyForces"
	TypeSettingsUpdate      = "settings_update"
)

// Server -> client builders. Each returns the marshaled JSON text
// frame ready to write to the transport; marshal errors on these
// fixed, known-good shapes are discarded, so callers get a plain
// []byte back.

type connectionEstablished struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func ConnectionEstablished(tsUnixMilli int64) []byte {
	b, _ := json.Marshal(connectionEstablished{Type: TypeConnectionEstablished, Timestamp: tsUnixMilli})
	return b
}

type loading struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func Loading(message string) []byte {
	b, _ := json.Marshal(loading{Type: TypeLoading, Message: message})
	return b
}

type updatesStarted struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func UpdatesStarted(tsUnixMilli int64) []byte {
	b, _ := json.Marshal(updatesStarted{Type: TypeUpdatesStarted, Timestamp: tsUnixMilli})
	return b
}

type settings struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Setting  string `json:"setting"`
	Value    any    `json:"value"`
}

func Settings(category, setting string, value any) []byte {
	b, _ := json.Marshal(settings{Type: TypeSettings, Category: category, Setting: setting, Value: value})
	return b
}

// validationFailed mirrors graphserr.ErrValidationFailed's fields, so a
// rejected settings_update (spec §7) can name the offending parameter
// and its valid range back to the client without retrying the update.
type validationFailed struct {
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Setting  string  `json:"setting"`
	Value    float64 `json:"value"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

func ValidationFailed(category, setting string, value, min, max float64) []byte {
	b, _ := json.Marshal(validationFailed{
		Type: TypeValidationFailed, Category: category, Setting: setting,
		Value: value, Min: min, Max: max,
	})
	return b
}

// Client -> server handlers. Dispatch peeks the `type` discriminator
// and routes to the matching handler, ignoring unknown types with a
// debug log per spec §4.9 ("unknown types are ignored...versioning is
// additive only"). A nil handler for a recognised type is also a
// silent no-op, so callers only wire the messages they care about.
type Handlers struct {
	OnRequestInitialData  func()
	OnEnableRandomization func(enabled bool)
	OnPauseSimulation     func(enabled bool)
	OnApplyForces         func()
	OnSettingsUpdate      func(category, setting string, value any)
}

type envelope struct {
	Type string `json:"type"`
}

type boolPayload struct {
	Enabled bool `json:"enabled"`
}

type settingsUpdatePayload struct {
	Category string `json:"category"`
	Setting  string `json:"setting"`
	Value    any    `json:"value"`
}

// Dispatch parses a text frame and invokes the matching handler. A
// malformed envelope is reported to the caller; an unrecognised type
// is not an error, per spec.
func Dispatch(raw []byte, h Handlers) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	switch env.Type {
	case TypeRequestInitialData:
		if h.OnRequestInitialData != nil {
			h.OnRequestInitialData()
		}
	case TypeEnableRandomization:
		var p boolPayload
		if err := json.Unmarshal(raw, &p); err == nil && h.OnEnableRandomization != nil {
			h.OnEnableRandomization(p.Enabled)
		}
	case TypePauseSimulation:
		var p boolPayload
		if err := json.Unmarshal(raw, &p); err == nil && h.OnPauseSimulation != nil {
			h.OnPauseSimulation(p.Enabled)
		}
	case TypeApplyForces:
		if h.OnApplyForces != nil {
			h.OnApplyForces()
		}
	case TypeSettingsUpdate:
		var p settingsUpdatePayload
		if err := json.Unmarshal(raw, &p); err == nil && h.OnSettingsUpdate != nil {
			h.OnSettingsUpdate(p.Category, p.Setting, p.Value)
		}
	default:
		nlog.Infof("control: ignoring unknown message type %q", env.Type)
	}
	return nil
}

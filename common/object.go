package common

import (
	"strings"
	"time"
)

// IsPattern reports whether id contains a * wildcard
func IsPattern(id string) bool {
	return strings.Contains(id, `*`)
}

// StateValue is the value of a State: a string, number, boolean, or nil
type StateValue = interface{}

// Object is a metadata record in the ioBroker object database, describing a
// device, channel, state, enum, group, adapter instance, and so on
type Object struct {
	ID     string                 `json:"_id"`
	Type   string                 `json:"type"`
	Common map[string]interface{} `json:"common"`
	Native map[string]interface{} `json:"native,omitempty"`
	Enums  map[string]interface{} `json:"enums,omitempty"`
	From   string                 `json:"from,omitempty"`
	User   string                 `json:"user,omitempty"`
	TS     int64                  `json:"ts,omitempty"`
	ACL    *ObjectACL             `json:"acl,omitempty"`
}

// ObjectACL holds the access control settings of an Object
type ObjectACL struct {
	Owner      string `json:"owner"`
	OwnerGroup string `json:"ownerGroup"`
	Object     int    `json:"object"`
	State      int    `json:"state,omitempty"`
}

// Name returns common.name of the object.  Translated names are resolved to
// the requested language, falling back to English and then to any available
// translation.
func (o *Object) Name(lang string) string {
	if o == nil || o.Common == nil {
		return ``
	}
	switch name := o.Common[`name`].(type) {
	case string:
		return name
	case map[string]interface{}:
		for _, l := range []string{lang, `en`} {
			if s, ok := name[l].(string); ok && s != `` {
				return s
			}
		}
		for _, v := range name {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ``
}

// Members returns common.members of an enum or group object
func (o *Object) Members() []string {
	if o == nil || o.Common == nil {
		return nil
	}
	raw, ok := o.Common[`members`].([]interface{})
	if !ok {
		return nil
	}
	members := make([]string, 0, len(raw))
	for _, m := range raw {
		if s, ok := m.(string); ok {
			members = append(members, s)
		}
	}
	return members
}

// State is a live value record in the ioBroker states database
type State struct {
	Val    StateValue `json:"val"`
	Ack    bool       `json:"ack"`
	TS     int64      `json:"ts"`
	LC     int64      `json:"lc"`
	From   string     `json:"from,omitempty"`
	Q      int        `json:"q,omitempty"`
	User   string     `json:"user,omitempty"`
	Expire int64      `json:"expire,omitempty"`
	C      string     `json:"c,omitempty"`
}

// Time returns the timestamp of the last update of the state
func (s *State) Time() time.Time {
	return time.UnixMilli(s.TS)
}

// LastChange returns the timestamp of the last value change of the state
func (s *State) LastChange() time.Time {
	return time.UnixMilli(s.LC)
}

// SystemConfig is the system.config object of an ioBroker installation
type SystemConfig struct {
	ID     string                 `json:"_id,omitempty"`
	Type   string                 `json:"type,omitempty"`
	Common SystemConfigCommon     `json:"common"`
	Native map[string]interface{} `json:"native,omitempty"`
}

// SystemConfigCommon holds the common section of the system configuration
type SystemConfigCommon struct {
	Language       string      `json:"language"`
	TempUnit       string      `json:"tempUnit,omitempty"`
	Currency       string      `json:"currency,omitempty"`
	DateFormat     string      `json:"dateFormat,omitempty"`
	IsFloatComma   bool        `json:"isFloatComma"`
	Latitude       interface{} `json:"latitude,omitempty"`
	Longitude      interface{} `json:"longitude,omitempty"`
	City           string      `json:"city,omitempty"`
	Country        string      `json:"country,omitempty"`
	DefaultHistory string      `json:"defaultHistory,omitempty"`
	ActiveRepo     interface{} `json:"activeRepo,omitempty"`
	ExpertMode     bool        `json:"expertMode,omitempty"`
	FirstDayOfWeek string      `json:"firstDayOfWeek,omitempty"`
}

// LogLevel is the severity of a message sent to the ioBroker log
type LogLevel string

const (
	LogSilly LogLevel = `silly`
	LogDebug LogLevel = `debug`
	LogInfo  LogLevel = `info`
	LogWarn  LogLevel = `warn`
	LogError LogLevel = `error`
)

// Valid reports whether l is one of the levels understood by ioBroker
func (l LogLevel) Valid() bool {
	switch l {
	case LogSilly, LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

package common

import "encoding/json"

// HistoryConfig is the per data point recording rule of a history adapter
// (history, influxdb, sql).  All fields are optional; the rule is passed to
// the adapter as is and keys without a dedicated field are kept in Extra.
type HistoryConfig struct {
	AliasID                    *string     `json:"aliasId,omitempty"`
	BlockTime                  *float64    `json:"blockTime,omitempty"`
	ChangesMinDelta            *float64    `json:"changesMinDelta,omitempty"`
	ChangesOnly                *bool       `json:"changesOnly,omitempty"`
	ChangesRelogInterval       *float64    `json:"changesRelogInterval,omitempty"`
	Debounce                   *float64    `json:"debounce,omitempty"`
	DebounceTime               *float64    `json:"debounceTime,omitempty"`
	DisableSkippedValueLogging *bool       `json:"disableSkippedValueLogging,omitempty"`
	EnableDebugLogs            *bool       `json:"enableDebugLogs,omitempty"`
	Enabled                    *bool       `json:"enabled,omitempty"`
	IgnoreBelowNumber          *string     `json:"ignoreBelowNumber,omitempty"`
	IgnoreZero                 *bool       `json:"ignoreZero,omitempty"`
	MaxLength                  *float64    `json:"maxLength,omitempty"`
	Retention                  *float64    `json:"retention,omitempty"`
	Round                      *float64    `json:"round,omitempty"`
	StorageType                interface{} `json:"storageType,omitempty"`

	Extra map[string]interface{} `json:"-"`
}

type historyConfigFields HistoryConfig

// MarshalJSON flattens Extra into the rule object
func (c HistoryConfig) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(historyConfigFields(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return known, nil
	}
	out := make(map[string]interface{}, len(c.Extra))
	for k, v := range c.Extra {
		out[k] = v
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON fills the known fields and collects the remaining keys in
// Extra
func (c *HistoryConfig) UnmarshalJSON(data []byte) error {
	var fields historyConfigFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range historyConfigKeys {
		delete(all, k)
	}
	*c = HistoryConfig(fields)
	if len(all) > 0 {
		c.Extra = all
	}
	return nil
}

var historyConfigKeys = []string{
	`aliasId`, `blockTime`, `changesMinDelta`, `changesOnly`,
	`changesRelogInterval`, `debounce`, `debounceTime`,
	`disableSkippedValueLogging`, `enableDebugLogs`, `enabled`,
	`ignoreBelowNumber`, `ignoreZero`, `maxLength`, `retention`, `round`,
	`storageType`,
}

// HistoryConfigResult is the reply of a history adapter to enableHistory and
// disableHistory
type HistoryConfigResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// GetHistoryOptions selects and aggregates the values returned by GetHistory
type GetHistoryOptions struct {
	Instance            string  `json:"instance,omitempty"`
	Start               int64   `json:"start,omitempty"`
	End                 int64   `json:"end,omitempty"`
	Step                int64   `json:"step,omitempty"`
	Count               int     `json:"count,omitempty"`
	From                bool    `json:"from,omitempty"`
	Ack                 bool    `json:"ack,omitempty"`
	Q                   bool    `json:"q,omitempty"`
	AddID               bool    `json:"addId,omitempty"`
	Limit               int     `json:"limit,omitempty"`
	IgnoreNull          bool    `json:"ignoreNull,omitempty"`
	SessionID           int64   `json:"sessionId,omitempty"`
	Aggregate           string  `json:"aggregate,omitempty"`
	ReturnNewestEntries bool    `json:"returnNewestEntries,omitempty"`
	Round               int     `json:"round,omitempty"`
	Percentile          float64 `json:"percentile,omitempty"`
	Quantile            float64 `json:"quantile,omitempty"`
	IntegralUnit        int64   `json:"integralUnit,omitempty"`
}

// HistoryEntry is one recorded value
type HistoryEntry struct {
	Val  StateValue `json:"val"`
	TS   int64      `json:"ts"`
	Ack  bool       `json:"ack,omitempty"`
	From string     `json:"from,omitempty"`
	Q    int        `json:"q,omitempty"`
	ID   string     `json:"id,omitempty"`
}

// GetHistoryResult holds the values returned by a history query
type GetHistoryResult struct {
	Values    []HistoryEntry
	Step      int64
	SessionID int64
}

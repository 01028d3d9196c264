package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/bandproj/bandproj/pkg/logger"
	"github.com/bandproj/bandproj/pkg/report"
)

// ErrCriticalParameterChanged indicates that a parameter the stored results
// depend on has changed since the last run. The previous state is stale and
// the run must not silently continue on top of it.
var ErrCriticalParameterChanged = errors.New("critical parameter changed since last run")

// AuditParameters compares the current parameters against the stored run
// state under name.
//
// Changes to parameters listed in critical abort with
// ErrCriticalParameterChanged after reporting every offending parameter.
// Other drift is reported as warnings and accepted. Parameters missing from
// the stored state are treated as non-critical drift (older software
// version). With no stored state the audit passes trivially.
func (s *Store) AuditParameters(name string, params map[string]interface{}, critical []string, rep report.Reporter) error {
	if !s.Exists(name) {
		return nil
	}

	prev, err := s.Load(name)
	if err != nil {
		return fmt.Errorf("parameter audit: %w", err)
	}

	isCritical := make(map[string]bool, len(critical))
	for _, key := range critical {
		isCritical[key] = true
	}

	criticalChanged := false
	for key, val := range params {
		old, ok := prev.Parameters[key]
		if !ok {
			rep.Warning("parameter not found in previous run, current value will be used",
				logger.WithField("parameter", key))
			continue
		}
		if parametersEqual(val, old) {
			continue
		}
		if isCritical[key] {
			criticalChanged = true
			rep.Error("critical parameter has changed since the last run",
				logger.WithField("parameter", key),
				logger.WithField("previous", old),
				logger.WithField("current", val))
		} else {
			rep.Warning("parameter has changed since the last run",
				logger.WithField("parameter", key),
				logger.WithField("previous", old),
				logger.WithField("current", val))
		}
	}

	if criticalChanged {
		return fmt.Errorf("parameter audit for %s: %w", name, ErrCriticalParameterChanged)
	}
	return nil
}

// parametersEqual compares parameter values through a JSON roundtrip so that
// values read back from a state file (json.Unmarshal types) compare equal to
// their in-memory originals.
func parametersEqual(a, b interface{}) bool {
	na, err := normalize(a)
	if err != nil {
		return false
	}
	nb, err := normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

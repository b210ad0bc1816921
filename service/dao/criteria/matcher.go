// Package criteria evaluates dao parameters against record attributes.
package criteria

import (
	"github.com/viant/labflow/service/dao"
)

// MatchState reports whether state satisfies every StateParameter in
// parameters. Other parameters are ignored.
func MatchState(state string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != dao.StateParameter {
			continue
		}
		if !parameter.Accepts(state) {
			return false
		}
	}
	return true
}

// api/provider/facts.go
package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/telgate/telgate/api/dao"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/pdp/oracle"
)

// PermissionStore answers permission checks from the grant store. The
// calling-or-self scope covers the service's own identity; ForCaller widens
// it to a specific calling process for the duration of one request.
type PermissionStore struct {
	grants  *dao.GrantDAO
	selfUID int
}

func NewPermissionStore(grants *dao.GrantDAO, selfUID int) *PermissionStore {
	return &PermissionStore{grants: grants, selfUID: selfUID}
}

func (p *PermissionStore) HasPermission(name string, pid, uid int) bool {
	has, err := p.grants.HasPermission(context.Background(), name, uid)
	if err != nil {
		logger.Error("Permission lookup failed, treating as denied",
			zap.String("permission", name), zap.Int("uid", uid), zap.Error(err))
		return false
	}
	return has
}

func (p *PermissionStore) HasCallingOrSelfPermission(name string) bool {
	return p.HasPermission(name, 0, p.selfUID)
}

// ForCaller returns a view of the store whose calling-or-self scope includes
// the given process.
func (p *PermissionStore) ForCaller(pid, uid int) oracle.PermissionOracle {
	return &scopedPermissions{store: p, pid: pid, uid: uid}
}

type scopedPermissions struct {
	store *PermissionStore
	pid   int
	uid   int
}

func (s *scopedPermissions) HasPermission(name string, pid, uid int) bool {
	return s.store.HasPermission(name, pid, uid)
}

func (s *scopedPermissions) HasCallingOrSelfPermission(name string) bool {
	if s.store.HasPermission(name, s.pid, s.uid) {
		return true
	}
	return s.store.HasCallingOrSelfPermission(name)
}

// AppOpStore answers app-op modes from the grant store. An op with no stored
// setting falls back to its per-op default: the phone-state and phone-number
// ops default to allowed (the static permission is the real gate there), the
// identifier op defaults to errored.
type AppOpStore struct {
	grants *dao.GrantDAO
	audit  noteRecorder
}

var defaultOpModes = map[string]model.AppOpMode{
	model.OpReadPhoneState:        model.AppOpAllowed,
	model.OpReadPhoneNumbers:      model.AppOpAllowed,
	model.OpReadDeviceIdentifiers: model.AppOpErrored,
}

// noteRecorder receives usage notes from the throwing NoteOp variant.
type noteRecorder interface {
	NoteUsage(op string, uid int, pkg string)
}

func NewAppOpStore(grants *dao.GrantDAO, recorder noteRecorder) *AppOpStore {
	return &AppOpStore{grants: grants, audit: recorder}
}

func (a *AppOpStore) NoteOp(op string, uid int, pkg, featureID string) model.AppOpMode {
	if a.audit != nil {
		a.audit.NoteUsage(op, uid, pkg)
	}
	return a.NoteOpNoThrow(op, uid, pkg, featureID)
}

func (a *AppOpStore) NoteOpNoThrow(op string, uid int, pkg, featureID string) model.AppOpMode {
	mode, err := a.grants.AppOpMode(context.Background(), op, uid, pkg)
	if err != nil {
		logger.Error("App-op lookup failed, treating as errored",
			zap.String("op", op), zap.Int("uid", uid), zap.Error(err))
		return model.AppOpErrored
	}
	switch mode {
	case "allowed":
		return model.AppOpAllowed
	case "ignored":
		return model.AppOpIgnored
	case "errored":
		return model.AppOpErrored
	default:
		if def, ok := defaultOpModes[op]; ok {
			return def
		}
		return model.AppOpErrored
	}
}

// api/provider/usage.go
package provider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/telgate/telgate/api/audit"
	logger "github.com/telgate/telgate/api/logging"
)

// UsageNoter records throwing op notes into the audit stream. A recording
// failure never blocks the decision path.
type UsageNoter struct {
	audit audit.Service
}

func NewUsageNoter(auditService audit.Service) *UsageNoter {
	return &UsageNoter{audit: auditService}
}

func (u *UsageNoter) NoteUsage(op string, uid int, pkg string) {
	change := audit.FactChange{
		Timestamp: time.Now().UTC(),
		Kind:      "app_op_noted",
		Key:       fmt.Sprintf("%s:%d", op, uid),
		Detail:    pkg,
	}
	if err := u.audit.LogFactChange(context.Background(), change); err != nil {
		logger.Warn("Failed to record op usage note",
			zap.String("op", op), zap.Int("uid", uid), zap.Error(err))
	}
}

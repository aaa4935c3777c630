// api/dao/package_dao.go
package dao

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/model"
)

// PackageDAO is the package metadata registry behind the target-API oracle.
type PackageDAO struct {
	Driver neo4j.Driver
}

func NewPackageDAO(driver neo4j.Driver) *PackageDAO {
	return &PackageDAO{Driver: driver}
}

// UpsertPackage registers a package for a user
func (dao *PackageDAO) UpsertPackage(ctx context.Context, pkg model.PackageInfo) error {
	logger.Info("Upserting package",
		zap.String("package", pkg.Name), zap.Int("userID", pkg.UserID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:PACKAGE {name: $name, userId: $userId})
        SET p.targetApiLevel = $targetApiLevel,
            p.privileged = $privileged,
            p.deviceOwner = $deviceOwner,
            p.updatedAt = $now
        RETURN p.name as name
        `
		parameters := map[string]interface{}{
			"name":           pkg.Name,
			"userId":         pkg.UserID,
			"targetApiLevel": pkg.TargetAPILevel,
			"privileged":     pkg.Privileged,
			"deviceOwner":    pkg.DeviceOwner,
			"now":            time.Now().Format(time.RFC3339),
		}
		records, err := transaction.Run(query, parameters)
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return nil, apierrors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to upsert package", zap.Error(err), zap.String("package", pkg.Name))
		return err
	}
	return nil
}

// GetPackage retrieves package metadata for a (name, user) pair
func (dao *PackageDAO) GetPackage(ctx context.Context, name string, userID int) (*model.PackageInfo, error) {
	if name == "" {
		return nil, apierrors.ErrNilPackageName
	}
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:PACKAGE {name: $name, userId: $userId})
        RETURN p.name as name, p.userId as userId, p.targetApiLevel as targetApiLevel,
               p.privileged as privileged, p.deviceOwner as deviceOwner
        `
		records, err := transaction.Run(query, map[string]interface{}{"name": name, "userId": userID})
		if err != nil {
			return nil, apierrors.ErrDatabaseOperation
		}
		if !records.Next() {
			return nil, apierrors.ErrPackageNotFound
		}
		record := records.Record()
		pkg := &model.PackageInfo{
			Name:           record.Values[0].(string),
			UserID:         int(record.Values[1].(int64)),
			TargetAPILevel: int(record.Values[2].(int64)),
			Privileged:     record.Values[3].(bool),
			DeviceOwner:    record.Values[4].(bool),
		}
		return pkg, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.PackageInfo), nil
}

// api/db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/model"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// CachePackageInfo caches package metadata. Target API lookups sit on the
// identifier denial path, so they are the hottest package-manager reads.
// Package metadata identifies installed apps per user, so cached entries are
// encrypted like the rest of the telephony facts.
func CachePackageInfo(ctx context.Context, pkg *model.PackageInfo) error {
	pkgJSON, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal package info: %w", err)
	}

	encryptedPkg, err := encrypt(pkgJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt package info: %w", err)
	}

	key := fmt.Sprintf("package:%d:%s", pkg.UserID, pkg.Name)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encryptedPkg), defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache package info: %w", err)
	}

	logger.Debug("Package info cached successfully", zap.String("package", pkg.Name), zap.Int("userID", pkg.UserID))
	return nil
}

func GetCachedPackageInfo(ctx context.Context, name string, userID int) (*model.PackageInfo, error) {
	key := fmt.Sprintf("package:%d:%s", userID, name)
	encryptedPkgStr, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Package info not found in cache", zap.String("package", name))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get package info from cache: %w", err)
	}

	encryptedPkg, err := base64.StdEncoding.DecodeString(encryptedPkgStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode package info: %w", err)
	}

	pkgJSON, err := decrypt(encryptedPkg)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt package info: %w", err)
	}

	var pkg model.PackageInfo
	err = json.Unmarshal(pkgJSON, &pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal package info: %w", err)
	}

	logger.Debug("Package info retrieved from cache", zap.String("package", name))
	return &pkg, nil
}

func DeleteCachedPackageInfo(ctx context.Context, name string, userID int) error {
	key := fmt.Sprintf("package:%d:%s", userID, name)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete package info from cache: %w", err)
	}
	logger.Debug("Package info deleted from cache", zap.String("package", name))
	return nil
}

// CacheCarrierPrivilegeStatus caches the privilege status resolved for a
// (subscription, uid) pair. Status values are short strings so they are
// stored unencrypted, mirroring how the lighter facts skip the cipher.
func CacheCarrierPrivilegeStatus(ctx context.Context, subID, uid int, status string) error {
	key := fmt.Sprintf("carrierpriv:%d:%d", subID, uid)
	defaultTTL := viper.GetDuration("redis.defaultCacheTTL")
	err := RedisClient.Set(ctx, key, status, defaultTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache carrier privilege status: %w", err)
	}

	logger.Debug("Carrier privilege status cached successfully",
		zap.Int("subscriptionID", subID), zap.Int("uid", uid))
	return nil
}

func GetCachedCarrierPrivilegeStatus(ctx context.Context, subID, uid int) (string, bool, error) {
	key := fmt.Sprintf("carrierpriv:%d:%d", subID, uid)
	status, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("failed to get carrier privilege status from cache: %w", err)
	}
	return status, true, nil
}

func DeleteCachedCarrierPrivilegeStatus(ctx context.Context, subID, uid int) error {
	key := fmt.Sprintf("carrierpriv:%d:%d", subID, uid)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete carrier privilege status from cache: %w", err)
	}
	return nil
}

// InvalidateSubscriptionCaches drops every cached fact derived from a
// subscription. Called when grants or the active flag change.
func InvalidateSubscriptionCaches(ctx context.Context, subID int) error {
	pattern := fmt.Sprintf("carrierpriv:%d:*", subID)
	iter := RedisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate subscription caches: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan subscription caches: %w", err)
	}
	logger.Debug("Subscription caches invalidated", zap.Int("subscriptionID", subID))
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

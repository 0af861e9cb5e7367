package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/payment"
	"github.com/buba6c/onesms-v1-sub003/internal/payment/epay"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDepositNotFound      = errors.New("deposit order not found")
	ErrDepositAlreadyPaid   = errors.New("deposit order already paid")
	ErrDepositCancelled     = errors.New("deposit order has been cancelled")
	ErrInvalidDepositStatus = errors.New("invalid deposit order status for this operation")
)

func GetPaymentMethods() ([]models.PaymentConfig, error) {
	var methods []models.PaymentConfig
	if err := database.DB.Where("enable = ?", true).Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func GetAllPaymentConfigs() ([]models.PaymentConfig, error) {
	var methods []models.PaymentConfig
	if err := database.DB.Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func CreatePaymentConfig(name string, method string, config map[string]interface{}, enable bool) (*models.PaymentConfig, error) {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}

	paymentConfig := &models.PaymentConfig{
		UUID:          uuid.New().String(),
		Name:          name,
		PaymentMethod: method,
		Config:        datatypes.JSON(configJSON),
		Enable:        enable,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := database.DB.Create(paymentConfig).Error; err != nil {
		return nil, err
	}
	return paymentConfig, nil
}

func UpdatePaymentConfig(id uint, name string, config map[string]interface{}, enable *bool) (*models.PaymentConfig, error) {
	var paymentConfig models.PaymentConfig
	if err := database.DB.First(&paymentConfig, id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if config != nil {
		configJSON, err := json.Marshal(config)
		if err != nil {
			return nil, err
		}
		updates["config"] = datatypes.JSON(configJSON)
	}
	if enable != nil {
		updates["enable"] = *enable
	}
	updates["updated_at"] = time.Now()

	if err := database.DB.Model(&paymentConfig).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &paymentConfig, nil
}

func DeletePaymentConfig(id uint) error {
	return database.DB.Delete(&models.PaymentConfig{}, id).Error
}

// CreateDepositOrder opens a pending top-up at the payment gateway.
func CreateDepositOrder(userID uint, amount float64, paymentUUID string) (*models.DepositOrder, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	order := &models.DepositOrder{
		ID:          strings.ReplaceAll(uuid.New().String(), "-", ""),
		UserID:      userID,
		Amount:      amount,
		Status:      models.DepositStatusPending,
		PaymentUUID: paymentUUID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := database.DB.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func GetPaymentJumpURL(orderID string, paymentMethodUUID string, paymentChannel string, notifyBaseURL string, returnURL string) (string, error) {
	var config models.PaymentConfig
	if err := database.DB.Where("uuid = ?", paymentMethodUUID).First(&config).Error; err != nil {
		return "", err
	}

	if !config.Enable {
		return "", errors.New("payment method is disabled")
	}

	driver, err := paymentDriverFor(config)
	if err != nil {
		return "", err
	}

	var order models.DepositOrder
	if err := database.DB.Where("id = ?", orderID).First(&order).Error; err != nil {
		return "", err
	}

	// Construct Notify URL with UUID
	fullNotifyURL := fmt.Sprintf("%s/%s", strings.TrimRight(notifyBaseURL, "/"), config.UUID)

	params := map[string]interface{}{
		"type": paymentChannel,
	}

	return driver.Pay(order.ID, order.Amount, fullNotifyURL, returnURL, params)
}

// HandlePaymentNotify verifies the gateway callback and completes the
// matching deposit order.
func HandlePaymentNotify(paymentUUID string, params map[string]interface{}) error {
	var config models.PaymentConfig
	if err := database.DB.Where("uuid = ?", paymentUUID).First(&config).Error; err != nil {
		return err
	}

	driver, err := paymentDriverFor(config)
	if err != nil {
		return err
	}

	isValid, orderID, externalID, err := driver.Notify(params)
	if err != nil {
		return err
	}
	if !isValid {
		return errors.New("invalid signature")
	}

	database.DB.Model(&models.DepositOrder{}).Where("id = ?", orderID).Update("external_id", externalID)

	return CompleteDepositOrder(orderID, systemMeta)
}

// CompleteDepositOrder marks the deposit paid and credits the user's
// available balance, all in one transaction. The frozen balance is never
// touched by this path. Locking the deposit row first makes duplicate
// gateway callbacks fail cleanly with ErrDepositAlreadyPaid.
func CompleteDepositOrder(orderID string, meta LedgerMetadata) error {
	var userID uint

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var order models.DepositOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDepositNotFound
			}
			return err
		}

		if order.Status == models.DepositStatusPaid {
			return ErrDepositAlreadyPaid
		}
		if order.Status == models.DepositStatusCancelled {
			return ErrDepositCancelled
		}

		now := time.Now()
		order.Status = models.DepositStatusPaid
		order.CompletedAt = &now
		order.UpdatedAt = now
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, order.UserID).Error; err != nil {
			return err
		}
		userID = user.ID

		balanceBefore := user.Balance
		user.Balance += order.Amount
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			UserID:        user.ID,
			Operation:     models.LedgerOpDeposit,
			Amount:        order.Amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  user.Balance,
			FrozenBefore:  user.FrozenBalance,
			FrozenAfter:   user.FrozenBalance,
			Reason:        fmt.Sprintf("Deposit order %s", order.ID),
			Operator:      meta.Operator,
			OperatorID:    meta.OperatorID,
		}
		return writeLedgerEntry(tx, &entry)
	})
	if err != nil {
		return err
	}

	invalidateUserCache(userID)
	return nil
}

func CancelDepositOrder(orderID string) error {
	var order models.DepositOrder
	if err := database.DB.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepositNotFound
		}
		return err
	}

	if order.Status != models.DepositStatusPending {
		return ErrInvalidDepositStatus
	}

	return database.DB.Model(&order).Updates(map[string]interface{}{
		"status":     models.DepositStatusCancelled,
		"updated_at": time.Now(),
	}).Error
}

func paymentDriverFor(config models.PaymentConfig) (payment.Driver, error) {
	var driver payment.Driver
	switch config.PaymentMethod {
	case "epay":
		driver = epay.NewEpayDriver()
	default:
		return nil, errors.New("unsupported payment method")
	}

	var configMap map[string]interface{}
	if err := json.Unmarshal(config.Config, &configMap); err != nil {
		return nil, err
	}
	if err := driver.SetConfig(configMap); err != nil {
		return nil, err
	}
	return driver, nil
}

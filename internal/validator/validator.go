// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lifeos/internal/models"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// MaxDayOffset bounds reminder offsets to one year ahead.
const MaxDayOffset = 365

const iso4217Codes = `AED AFN ALL AMD ANG AOA ARS AUD AWG AZN BAM BBD BDT BGN BHD BIF BMD BND BOB BRL
BSD BTN BWP BYN BZD CAD CDF CHF CLP CNY COP CRC CUP CVE CZK DJF DKK DOP DZD EGP ERN ETB EUR FJD FKP
GBP GEL GHS GIP GMD GNF GTQ GYD HKD HNL HRK HTG HUF IDR ILS INR IQD IRR ISK JMD JOD JPY KES KGS KHR
KMF KPW KRW KWD KYD KZT LAK LBP LKR LRD LSL LYD MAD MDL MGA MKD MMK MNT MOP MRU MUR MVR MWK MXN MYR
MZN NAD NGN NIO NOK NPR NZD OMR PAB PEN PGK PHP PKR PLN PYG QAR RON RSD RUB RWF SAR SBD SCR SDG SEK
SGD SHP SLE SOS SRD SSP STN SVC SYP SZL THB TJS TMT TND TOP TRY TTD TWD TZS UAH UGX USD UYU UZS VES
VND VUV WST XAF XCD XOF XPF YER ZAR ZMW ZWL`

var validCurrencies = func() map[string]bool {
	m := make(map[string]bool)
	for _, code := range strings.Fields(iso4217Codes) {
		m[code] = true
	}
	return m
}()

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom tags on an arbitrary validator instance.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("category_type", oneOf("income", "expense"))
	_ = v.RegisterValidation("billing_cycle", oneOf(
		string(models.BillingCycleWeekly), string(models.BillingCycleMonthly),
		string(models.BillingCycleQuarterly), string(models.BillingCycleYearly), string(models.BillingCycleCustom)))
	_ = v.RegisterValidation("subscription_status", oneOf(
		string(models.SubscriptionStatusActive), string(models.SubscriptionStatusPaused), string(models.SubscriptionStatusCancelled)))
	_ = v.RegisterValidation("payment_status", oneOf(
		string(models.PaymentStatusPending), string(models.PaymentStatusPaid), string(models.PaymentStatusOverdue)))
	_ = v.RegisterValidation("expense_status", oneOf(
		string(models.ExpenseStatusPending), string(models.ExpenseStatusConfirmed)))
	_ = v.RegisterValidation("notification_type", oneOf(
		string(models.NotificationTypeSubscriptionRenewal), string(models.NotificationTypeBudgetAlert), string(models.NotificationTypeAutoRenewal)))
	_ = v.RegisterValidation("utility_type", oneOf(
		string(models.UtilityTypeElectricity), string(models.UtilityTypeWater), string(models.UtilityTypeGas),
		string(models.UtilityTypeInternet), string(models.UtilityTypePhone), string(models.UtilityTypeOther)))
	_ = v.RegisterValidation("day_offsets", validateDayOffsets)
}

func validateISO4217(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func oneOf(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// validateDayOffsets accepts a slice of integers in [0, MaxDayOffset].
// Duplicates are allowed here and removed by DayOffsets.Normalize.
func validateDayOffsets(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < field.Len(); i++ {
		elem := field.Index(i)
		if !elem.CanInt() {
			return false
		}
		if n := elem.Int(); n < 0 || n > MaxDayOffset {
			return false
		}
	}
	return true
}

package masker

import (
	"errors"
	"reflect"

	"go.uber.org/zap"
)

var ErrConfigNotPointer = errors.New("config must be a pointer to a struct")

// LogConfigs логгирует структуры конфигурации, в том числе вложенные.
// Поля с тегом masked логгируются замаскированными.
func LogConfigs(logger *zap.Logger, configs ...interface{}) error {
	for _, config := range configs {
		v := reflect.ValueOf(config)
		t := reflect.TypeOf(config)

		if v.Kind() != reflect.Ptr {
			return ErrConfigNotPointer
		}
		v = v.Elem()
		t = t.Elem()

		masked := maskStructFields(v, t)
		logger.Info("Config", zap.Any(t.Name(), masked))
	}
	return nil
}

// maskStructFields маскирует поля структуры, отмеченные тегом masked
func maskStructFields(v reflect.Value, t reflect.Type) map[string]interface{} {
	result := make(map[string]interface{})
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		masked := fieldType.Tag.Get("masked")

		switch field.Kind() {
		case reflect.Struct:
			result[fieldType.Name] = maskStructFields(field, field.Type())

		case reflect.String:
			if masked == "true" {
				result[fieldType.Name] = maskSensitiveData(field.String())
			} else {
				result[fieldType.Name] = field.String()
			}

		default:
			result[fieldType.Name] = field.Interface()
		}
	}
	return result
}

// maskSensitiveData оставляет от строки первый и последний символы.
// Короткие строки маскируются целиком.
func maskSensitiveData(data string) string {
	if len(data) <= 2 {
		return "****"
	}
	return string(data[0]) + "****" + string(data[len(data)-1])
}

package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// bindEnv 按 env 标签把 PREFIX_SECTION_FIELD 形式的环境变量写入 cfg。
// 嵌套结构体的标签逐级拼接，例如 VOICECANVAS_SERVER_JWT_SECRET。
func bindEnv(cfg *Config, prefix string, lookup func(string) (string, bool)) error {
	return walkEnv(reflect.ValueOf(cfg).Elem(), prefix, func(key string, field reflect.Value) error {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return nil
		}
		if err := decodeEnv(field, raw); err != nil {
			return fmt.Errorf("%s=%q: %w", key, raw, err)
		}
		return nil
	})
}

func walkEnv(v reflect.Value, prefix string, visit func(string, reflect.Value) error) error {
	t := v.Type()
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if err := walkEnv(field, key, visit); err != nil {
				return err
			}
			continue
		}
		if !field.CanSet() {
			continue
		}
		if err := visit(key, field); err != nil {
			return err
		}
	}
	return nil
}

// decodeEnv 解析单个值。切片只支持逗号分隔的字符串。
func decodeEnv(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

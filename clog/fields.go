package clog

import (
	"log/slog"
	"time"

	"github.com/ceyewan/idstore/xerrors"
)

// Field 是 slog.Attr 的别名
type Field = slog.Attr

func String(k, v string) Field { return slog.String(k, v) }

func Int(k string, v int) Field { return slog.Int(k, v) }

func Int64(k string, v int64) Field { return slog.Int64(k, v) }

func Bool(k string, v bool) Field { return slog.Bool(k, v) }

func Float64(k string, v float64) Field { return slog.Float64(k, v) }

func Duration(k string, v time.Duration) Field { return slog.Duration(k, v) }

func Any(k string, v any) Field { return slog.Any(k, v) }

// Error 输出 err_msg 字段；若错误链上带有错误码，输出 error={msg, code} 分组。
func Error(err error) Field {
	if err == nil {
		return slog.Attr{}
	}
	if code := xerrors.GetCode(err); code != "" {
		return slog.Group("error", slog.String("msg", err.Error()), slog.String("code", code))
	}
	return slog.String("err_msg", err.Error())
}

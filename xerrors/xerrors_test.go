package xerrors

import (
	"errors"
	"testing"
)

func TestWrapKeepsChain(t *testing.T) {
	if err := Wrap(nil, "ctx"); err != nil {
		t.Errorf("Wrap(nil) = %v，期望 nil", err)
	}
	if err := Wrapf(nil, "table %s", "People"); err != nil {
		t.Errorf("Wrapf(nil) = %v，期望 nil", err)
	}

	base := errors.New("backend not registered")
	wrapped := Wrapf(base, "driver %q", "oracle")
	if got, want := wrapped.Error(), `driver "oracle": backend not registered`; got != want {
		t.Errorf("Wrapf(err).Error() = %q，期望 %q", got, want)
	}
	if !Is(wrapped, base) {
		t.Error("Is(wrapped, base) = false，期望 true")
	}
}

func TestCodes(t *testing.T) {
	if err := WithCode(nil, "x"); err != nil {
		t.Errorf("WithCode(nil) = %v，期望 nil", err)
	}

	base := errors.New("table name is empty")
	coded := WithCode(base, "table_name_empty")
	if got, want := coded.Error(), "[table_name_empty] table name is empty"; got != want {
		t.Errorf("coded.Error() = %q，期望 %q", got, want)
	}

	wrapped := Wrap(coded, "new generator")
	if code := GetCode(wrapped); code != "table_name_empty" {
		t.Errorf("GetCode(wrapped) = %q，期望 table_name_empty", code)
	}
	if !HasCode(wrapped, "table_name_empty") {
		t.Error("HasCode(wrapped) = false，期望 true")
	}
	if HasCode(wrapped, "batch_size_not_positive") {
		t.Error("HasCode 命中了不存在的错误码")
	}
	if GetCode(base) != "" {
		t.Error("无错误码的错误 GetCode 应返回空串")
	}
	if (&CodedError{Code: "bare"}).Error() != "[bare]" {
		t.Error("无 Cause 的 CodedError 格式不正确")
	}
}

func TestCombine(t *testing.T) {
	if err := Combine(nil, nil); err != nil {
		t.Errorf("Combine(nil, nil) = %v，期望 nil", err)
	}

	e1 := errors.New("close sqlite")
	if err := Combine(nil, e1); err != e1 {
		t.Errorf("Combine(nil, e1) = %v，期望 e1", err)
	}

	e2 := WithCode(errors.New("close redis"), "close_failed")
	combined := Combine(e1, e2)
	if got, want := combined.Error(), "close sqlite (and 1 more errors)"; got != want {
		t.Errorf("combined.Error() = %q，期望 %q", got, want)
	}
	if !Is(combined, e1) || !Is(combined, e2) {
		t.Error("Is 应能匹配 MultiError 中的每个错误")
	}
	if !HasCode(combined, "close_failed") {
		t.Error("HasCode 应能穿透 MultiError")
	}
}

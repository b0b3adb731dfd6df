package errors

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestInitError(t *testing.T) {
	cause := os.ErrPermission
	err := NewInitError("demo", "/work/demo/.logs", cause)

	t.Run("message names pipeline and path", func(t *testing.T) {
		msg := err.Error()
		if !strings.Contains(msg, "demo") || !strings.Contains(msg, "/work/demo/.logs") {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("unwraps to its cause", func(t *testing.T) {
		if !Is(err, os.ErrPermission) {
			t.Error("Is did not reach the cause")
		}
	})

	t.Run("recoverable via As", func(t *testing.T) {
		wrapped := fmt.Errorf("run aborted: %w", err)
		var ie *InitError
		if !As(wrapped, &ie) {
			t.Fatal("As failed")
		}
		if ie.Pipeline != "demo" {
			t.Errorf("Pipeline = %q", ie.Pipeline)
		}
	})

	t.Run("is fatal", func(t *testing.T) {
		if !IsFatal(err) {
			t.Error("init errors abort the run")
		}
		if IsTaskScoped(err) {
			t.Error("init errors are not task scoped")
		}
	})
}

func TestTaskLogError(t *testing.T) {
	cause := os.ErrNotExist
	err := NewTaskLogError("align", "/work/demo/align/proc.xqute.log", cause)

	t.Run("message names the task", func(t *testing.T) {
		if !strings.Contains(err.Error(), "align") {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("unwraps to its cause", func(t *testing.T) {
		if !Is(err, os.ErrNotExist) {
			t.Error("Is did not reach the cause")
		}
	})

	t.Run("is task scoped, not fatal", func(t *testing.T) {
		if IsFatal(err) {
			t.Error("task log errors must not abort the run")
		}
		if !IsTaskScoped(err) {
			t.Error("IsTaskScoped should recognize the type")
		}
	})
}

func TestSentinels(t *testing.T) {
	wrapped := fmt.Errorf("latest link: %w", ErrSymlinkUnsupported)
	if !Is(wrapped, ErrSymlinkUnsupported) {
		t.Error("sentinel lost through wrapping")
	}
	if IsFatal(wrapped) || IsTaskScoped(wrapped) {
		t.Error("sentinels carry no severity")
	}
}

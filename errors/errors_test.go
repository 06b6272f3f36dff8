package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseMarshal,
				Kind:   KindUnsupported,
				GoType: "float64",
				Detail: "only integers and strings may cross into a call",
				Arg:    1,
			},
			contains: []string{"[marshal]", "unsupported", "at arg 1", "float64", "only integers"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseEval,
				Kind:  KindUnknownTag,
				Arg:   -1,
			},
			contains: []string{"[eval]", "unknown_tag"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInstantiation,
				Detail: "instantiate engine module",
				Cause:  errors.New("underlying error"),
				Arg:    -1,
			},
			contains: []string{"[load]", "instantiation", "instantiate engine module", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseLoad, KindInstantiation, cause, "instantiate engine module")

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := JSException(PhaseEval, "Error: boom")

	if !errors.Is(err, &Error{Phase: PhaseEval, Kind: KindJSException}) {
		t.Error("expected match on same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseCall, Kind: KindJSException}) {
		t.Error("unexpected match across phases")
	}
	if errors.Is(err, &Error{Phase: PhaseEval, Kind: KindUnknownTag}) {
		t.Error("unexpected match across kinds")
	}
}

func TestConstructors(t *testing.T) {
	if e := UnsupportedArg(0, true); e.Arg != 0 || e.GoType != "bool" {
		t.Errorf("UnsupportedArg = %+v", e)
	}
	if e := StaleHandle(); e.Phase != PhaseCall || e.Kind != KindStaleHandle {
		t.Errorf("StaleHandle = %+v", e)
	}
	if e := Closed("evaluate"); !strings.Contains(e.Error(), "evaluate on closed session") {
		t.Errorf("Closed = %q", e.Error())
	}
	if e := MissingExport("qjs_eval"); !strings.Contains(e.Error(), `"qjs_eval"`) {
		t.Errorf("MissingExport = %q", e.Error())
	}
	if e := UnknownTag(PhaseEval, "symbol"); !strings.Contains(e.Error(), `unknown engine value tag "symbol"`) {
		t.Errorf("UnknownTag = %q", e.Error())
	}
	if e := Load("engine module has no memory", nil); e.Phase != PhaseLoad || e.Kind != KindInstantiation {
		t.Errorf("Load = %+v, want load/instantiation", e)
	}
}

package registry

import (
	"context"
	"testing"
)

type widget struct{ label string }
type widgetSpec struct{ label string }

func buildWidget(_ context.Context, key Key, spec widgetSpec) (widget, error) {
	return widget{label: key.Name + ":" + spec.label}, nil
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := New[widget, widgetSpec]()
	MustRegister(r, Key{Kind: "sink", Name: "stdout"}, buildWidget)

	w, err := r.Build(context.Background(), Key{Kind: "sink", Name: "stdout"}, widgetSpec{label: "x"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if w.label != "stdout:x" {
		t.Fatalf("label = %q, want %q", w.label, "stdout:x")
	}
}

func TestRegistry_BuildUnknownKeyErrors(t *testing.T) {
	r := New[widget, widgetSpec]()
	if _, err := r.Build(context.Background(), Key{Kind: "sink", Name: "missing"}, widgetSpec{}); err == nil {
		t.Fatalf("expected error for unregistered key")
	}
}

func TestRegistry_DuplicateRegistrationErrors(t *testing.T) {
	r := New[widget, widgetSpec]()
	if err := r.Register(Key{Kind: "sink", Name: "stdout"}, buildWidget); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(Key{Kind: "sink", Name: "stdout"}, buildWidget); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := New[widget, widgetSpec]()
	MustRegister(r, Key{Kind: "sink", Name: "stdout"}, buildWidget)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate MustRegister")
		}
	}()
	MustRegister(r, Key{Kind: "sink", Name: "stdout"}, buildWidget)
}

func TestRegistry_SealRejectsFurtherRegistration(t *testing.T) {
	r := New[widget, widgetSpec]()
	r.Seal()
	if err := r.Register(Key{Kind: "sink", Name: "stdout"}, buildWidget); err == nil {
		t.Fatalf("expected error registering after Seal")
	}
}

func TestRegistry_CaseFoldLower(t *testing.T) {
	r := New[widget, widgetSpec](WithCaseFoldLower())
	MustRegister(r, Key{Kind: "Sink", Name: "STDOUT"}, buildWidget)

	if _, err := r.Build(context.Background(), Key{Kind: "sink", Name: "stdout"}, widgetSpec{label: "y"}); err != nil {
		t.Fatalf("Build with folded case: %v", err)
	}
}

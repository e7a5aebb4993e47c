package identity

import (
	"context"
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"tutor", "student"} {
		kind, err := ParseKind(valid)
		if err != nil {
			t.Fatalf("ParseKind(%q) error = %v", valid, err)
		}
		if string(kind) != valid {
			t.Fatalf("ParseKind(%q) = %q", valid, kind)
		}
	}

	for _, invalid := range []string{"", "Tutor", "admin", "tutors"} {
		if _, err := ParseKind(invalid); !errors.Is(err, ErrUnknownKind) {
			t.Fatalf("ParseKind(%q) error = %v, want ErrUnknownKind", invalid, err)
		}
	}
}

func TestPrincipalKey(t *testing.T) {
	p := Principal{Kind: KindTutor, ID: 7}
	if p.Key() != "tutor:7" {
		t.Fatalf("Key() = %q, want tutor:7", p.Key())
	}
	if (Principal{Kind: KindStudent, ID: 7}).Key() == p.Key() {
		t.Fatalf("keys must differ across kinds")
	}
}

func TestInMemoryResolver(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryResolver()
	r.Add(Profile{Principal: Principal{Kind: KindTutor, ID: 7}, Name: "Alice"}, 100)

	got, err := r.Resolve(ctx, KindTutor, 7)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Name != "Alice" {
		t.Fatalf("Name = %q, want Alice", got.Name)
	}

	if _, err := r.Resolve(ctx, KindStudent, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve() wrong kind error = %v, want ErrNotFound", err)
	}

	byAccount, err := r.ResolveAccount(ctx, 100)
	if err != nil {
		t.Fatalf("ResolveAccount() error = %v", err)
	}
	if byAccount.Principal != got.Principal {
		t.Fatalf("ResolveAccount() = %+v, want %+v", byAccount.Principal, got.Principal)
	}

	if _, err := r.ResolveAccount(ctx, 999); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("ResolveAccount() unknown account error = %v, want ErrNoProfile", err)
	}
}

package dogbutler

import (
	"context"
	"testing"

	"github.com/vsirisanthana/dogbutler/store/memstore"
)

func TestDefaultCacheStoreRoundTrip(t *testing.T) {
	original := GetDefaultCacheStore()
	defer SetDefaultCacheStore(original)

	custom := memstore.New(nil)
	SetDefaultCacheStore(custom)
	if GetDefaultCacheStore() != custom {
		t.Fatal("GetDefaultCacheStore did not return the store just set")
	}
}

func TestDisabledStoreIsAlwaysAMiss(t *testing.T) {
	ctx := context.Background()
	if _, ok, err := Disabled.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Disabled.Get = (_, %v, %v); want (_, false, nil)", ok, err)
	}
	if err := Disabled.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Disabled.Set returned an error: %v", err)
	}
	if _, ok, _ := Disabled.Get(ctx, "k"); ok {
		t.Fatal("Disabled.Set had an observable effect")
	}
}

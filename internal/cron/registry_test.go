package cron

import "testing"

func TestRegistryKeepsOrderAndRejectsDuplicates(t *testing.T) {
	registry, err := NewRegistry(&testJob{name: "a"}, &testJob{name: "b"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := registry.Register(&testJob{name: "a"}); err == nil {
		t.Fatal("expected duplicate job name to be rejected")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected nil job to be rejected")
	}

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = &testJob{name: "mutated"}
	if registry.Jobs()[0].Name() != "a" {
		t.Fatal("Jobs must return a copy")
	}
}

func TestNewRegistryFailsOnDuplicate(t *testing.T) {
	if _, err := NewRegistry(&testJob{name: "x"}, &testJob{name: "x"}); err == nil {
		t.Fatal("expected duplicate error")
	}
}

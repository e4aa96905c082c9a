package nav

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func currentNames(items []Item) []string {
	var names []string
	for _, it := range items {
		if it.Current {
			names = append(names, it.Name)
		}
	}
	return names
}

func TestBuildMarksCurrent(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"Home"}},
		{"", []string{"Home"}},
		{"/about", []string{"About"}},
		{"/about/", []string{"About"}},
		{"/about/team", []string{"About"}},
		{"/aboutus", nil},
		{"/contact", []string{"Contact"}},
		{"contact", []string{"Contact"}},
		{"/missing", nil},
	}
	for _, tc := range tests {
		got := currentNames(Build(tc.path))
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("Build(%q) current (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestBuildKeepsOrderAndDoesNotMutateMain(t *testing.T) {
	items := Build("/about")
	want := []Item{
		{Name: "Home", Path: "/"},
		{Name: "About", Path: "/about", Current: true},
		{Name: "Contact", Path: "/contact"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	items[0].Current = true
	for _, it := range Main {
		if it.Current {
			t.Fatalf("Main must never carry current state")
		}
	}
	if names := currentNames(Build("/contact")); len(names) != 1 || names[0] != "Contact" {
		t.Fatalf("current must be recomputed per call, got %v", names)
	}
}

func TestCurrent(t *testing.T) {
	it, ok := Current("/contact")
	if !ok || it.Name != "Contact" {
		t.Fatalf("unexpected current %v %v", it, ok)
	}
	if _, ok := Current("/nowhere"); ok {
		t.Fatalf("expected no current item")
	}
}

func TestBreadcrumbs(t *testing.T) {
	tests := []struct {
		path string
		want []Crumb
	}{
		{"/", []Crumb{{Name: "Home", Path: "/", Current: true}}},
		{"/about", []Crumb{
			{Name: "Home", Path: "/"},
			{Name: "About", Path: "/about", Current: true},
		}},
		{"/about/our-team_members", []Crumb{
			{Name: "Home", Path: "/"},
			{Name: "About", Path: "/about"},
			{Name: "Our Team Members", Path: "/about/our-team_members", Current: true},
		}},
		{"/press-kit", []Crumb{
			{Name: "Home", Path: "/"},
			{Name: "Press Kit", Path: "/press-kit", Current: true},
		}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, Breadcrumbs(tc.path)); diff != "" {
			t.Fatalf("Breadcrumbs(%q) (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestBreadcrumbsConcurrentCallers(t *testing.T) {
	want := Breadcrumbs("/about/our-team/some_long-segment")
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if diff := cmp.Diff(want, Breadcrumbs("/about/our-team/some_long-segment")); diff != "" {
					errs <- diff
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for diff := range errs {
		t.Fatalf("concurrent Breadcrumbs mismatch (-want +got):\n%s", diff)
	}
}

// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuildURLJoinsWithoutDoubleSlash(t *testing.T) {
	got := BuildURL("http://example.com/", "admin")
	want := "http://example.com/admin"
	if got != want {
		t.Fatalf("BuildURL() = %q, want %q", got, want)
	}
}

func TestBuildURLEscapesWord(t *testing.T) {
	got := BuildURL("http://example.com", "a b")
	want := "http://example.com/a%20b"
	if got != want {
		t.Fatalf("BuildURL() = %q, want %q", got, want)
	}
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(DefaultConfig())
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL+"/word")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

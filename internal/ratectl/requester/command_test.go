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

package requester

import (
	"testing"
	"time"
)

func TestResponseIsRedirect(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{200, false},
		{299, false},
		{300, true},
		{301, true},
		{399, true},
		{400, false},
		{403, false},
	}
	for _, c := range cases {
		got := Response{StatusCode: c.status}.IsRedirect()
		if got != c.want {
			t.Errorf("Response{StatusCode: %d}.IsRedirect() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestSendExtractLinksDeliversAndReplies(t *testing.T) {
	ch := NewCommandChannel(1)
	go func() {
		cmd := <-ch
		if cmd.ExtractLinks == nil {
			t.Errorf("expected ExtractLinks to be set on the delivered command")
		}
		cmd.Sync <- true
	}()

	ok, err := SendExtractLinks(ch, Response{URL: "http://example.com/x", StatusCode: 200}, time.Second)
	if err != nil {
		t.Fatalf("SendExtractLinks() error = %v", err)
	}
	if !ok {
		t.Fatalf("SendExtractLinks() = false, want true")
	}
}

func TestSendExtractLinksChannelFull(t *testing.T) {
	ch := NewCommandChannel(0) // unbuffered, no reader
	_, err := SendExtractLinks(ch, Response{URL: "http://example.com/x"}, 10*time.Millisecond)
	if err != ErrCommandChannelFull {
		t.Fatalf("SendExtractLinks() error = %v, want ErrCommandChannelFull", err)
	}
}

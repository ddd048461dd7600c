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
	"errors"
	"net/http"
	"time"
)

// ErrCommandChannelFull is surfaced when the scan command channel cannot
// accept a TryRecursion command. It is logged and recoverable — the step is
// skipped, not the whole request.
var ErrCommandChannelFull = errors.New("requester: scan command channel full")

// Response is the minimal result of one fetch, the piece of the full
// FeroxResponse the controller itself needs to pass downstream.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
}

// IsRedirect reports whether the response is a 3xx.
func (r Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// ScanCommand is one message sent down the scan command channel:
// TryRecursion, asking the recursion collaborator to consider the
// response; ExtractLinks, asking the (absent) link-extraction collaborator
// to scan a non-redirect body; or Sync, a barrier the requester awaits
// before proceeding. Exactly one of TryRecursion/ExtractLinks is set per
// command.
type ScanCommand struct {
	TryRecursion *Response
	ExtractLinks *Response
	Sync         chan bool
}

// CommandChannel is the outbound scan command channel. Buffered sends avoid
// blocking a worker behind a slow recursion collaborator; a full channel is
// a scan-command failure per the error taxonomy.
type CommandChannel chan ScanCommand

// NewCommandChannel returns a buffered channel sized for bufferSize
// in-flight commands.
func NewCommandChannel(bufferSize int) CommandChannel {
	return make(CommandChannel, bufferSize)
}

// SendTryRecursion enqueues a TryRecursion command and awaits the paired
// Sync reply, bounded by timeout. Returns ErrCommandChannelFull if the
// channel has no room, or false if the wait for a reply times out.
func SendTryRecursion(ch CommandChannel, resp Response, timeout time.Duration) (bool, error) {
	return sendCommand(ch, ScanCommand{TryRecursion: &resp}, timeout)
}

// SendExtractLinks enqueues an ExtractLinks command and awaits the paired
// Sync reply, bounded by timeout. The extractor itself lives outside this
// package; a requester with no collaborator wired up to its Commands
// channel still issues the command and times out waiting for the reply,
// same as a TryRecursion command would. Returns ErrCommandChannelFull if
// the channel has no room, or false if the wait for a reply times out.
func SendExtractLinks(ch CommandChannel, resp Response, timeout time.Duration) (bool, error) {
	return sendCommand(ch, ScanCommand{ExtractLinks: &resp}, timeout)
}

func sendCommand(ch CommandChannel, cmd ScanCommand, timeout time.Duration) (bool, error) {
	reply := make(chan bool, 1)
	cmd.Sync = reply
	select {
	case ch <- cmd:
	default:
		return false, ErrCommandChannelFull
	}

	select {
	case ok := <-reply:
		return ok, nil
	case <-time.After(timeout):
		return false, nil
	}
}

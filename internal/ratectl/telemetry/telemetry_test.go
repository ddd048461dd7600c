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

package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ratectl/internal/ratectl/policy"
)

func TestRecordTriggerNoopWhenDisabled(t *testing.T) {
	enabled.Store(false)
	before := testutil.ToFloat64(triggersTotal.WithLabelValues(policy.TriggerErrors.String()))
	RecordTrigger(policy.TriggerErrors)
	after := testutil.ToFloat64(triggersTotal.WithLabelValues(policy.TriggerErrors.String()))
	if before != after {
		t.Fatalf("RecordTrigger should be a no-op while disabled")
	}
}

func TestRecordTriggerIncrementsWhenEnabled(t *testing.T) {
	Enable()
	defer enabled.Store(false)

	before := testutil.ToFloat64(triggersTotal.WithLabelValues(policy.TriggerStatus429.String()))
	RecordTrigger(policy.TriggerStatus429)
	after := testutil.ToFloat64(triggersTotal.WithLabelValues(policy.TriggerStatus429.String()))
	if after != before+1 {
		t.Fatalf("RecordTrigger() did not increment counter: before=%v after=%v", before, after)
	}
}

func TestActivityForReturnsSameEntry(t *testing.T) {
	a := activityFor("http://a")
	b := activityFor("http://a")
	if a != b {
		t.Fatalf("activityFor returned two different entries for the same target")
	}
}

func TestStartActivityLogReplacesPreviousLoop(t *testing.T) {
	StartActivityLog(10*time.Millisecond, 5)
	StartActivityLog(10*time.Millisecond, 5) // should cleanly stop the first loop
	StartActivityLog(0, 5)                   // disables
}

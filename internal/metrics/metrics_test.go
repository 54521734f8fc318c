// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/valis/files/spectrum", "200"))
	RecordAPIRequest("GET", "/valis/files/spectrum", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/valis/files/spectrum", "200"))
	if after != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", after, before+1)
	}
}

func TestRecordDBQueryError(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("cone_search"))
	RecordDBQuery("cone_search", 10*time.Millisecond, errors.New("connection refused"))
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("cone_search"))
	if after != before+1 {
		t.Errorf("DBQueryErrors = %v, want %v", after, before+1)
	}
}

func TestRecordExtractionResults(t *testing.T) {
	okBefore := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("specLite", "success"))
	errBefore := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("specLite", "error"))

	RecordExtraction("specLite", time.Millisecond, nil)
	RecordExtraction("specLite", time.Millisecond, errors.New("malformed source file"))

	if got := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("specLite", "success")); got != okBefore+1 {
		t.Errorf("success count = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("specLite", "error")); got != errBefore+1 {
		t.Errorf("error count = %v, want %v", got, errBefore+1)
	}
}

func TestCacheCounters(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("query"))
	missesBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("query"))

	RecordCacheHit("query")
	RecordCacheMiss("query")

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("query")); got != hitsBefore+1 {
		t.Errorf("CacheHits = %v, want %v", got, hitsBefore+1)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("query")); got != missesBefore+1 {
		t.Errorf("CacheMisses = %v, want %v", got, missesBefore+1)
	}
}

package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"linkage/internal/linkage/hashing"
	"linkage/internal/linkage/metrics"
	"linkage/internal/linkage/models"
	"linkage/internal/linkage/service"
	"linkage/internal/linkage/store"
	audit "linkage/pkg/platform/audit"
	"linkage/pkg/platform/audit/store/memory"
	"linkage/pkg/platform/sentinel"
	"linkage/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	audit   *memory.InMemoryStore
	metrics *metrics.Metrics
	svc     *service.Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.audit = memory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = service.New(s.store,
		service.WithMetrics(s.metrics),
		service.WithAuditor(audit.NewPublisher(s.audit)),
	)
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-test")
}

var baseFields = map[string]string{
	models.FieldAadhaarNumber: "1234",
	models.FieldDOB:           "1990-01-01",
	models.FieldForename:      "A",
	models.FieldLastname:      "B",
}

func (s *ServiceSuite) insert(values map[string]string) *models.PersonIdentity {
	resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("INSERT").WithData(models.Fields(values)))
	s.Require().Equal(models.StatusSuccess, resp.Status, resp.Message)
	s.Require().NotNil(resp.Record)
	return resp.Record
}

func digestOf(v string) string {
	return hashing.SHA256().Hash([]byte(v))
}

// TestDispatch verifies request shape validation and action routing.
func (s *ServiceSuite) TestDispatch() {
	s.Run("nil request is invalid", func() {
		resp := s.svc.ProcessRequest(s.ctx, nil)
		s.Equal(models.StatusError, resp.Status)
		s.Equal("Invalid request", resp.Message)
	})

	s.Run("missing action is invalid", func() {
		resp := s.svc.ProcessRequest(s.ctx, &models.Request{})
		s.Equal(models.StatusError, resp.Status)
		s.Equal("Invalid request", resp.Message)
		s.Equal(models.ReasonInvalidRequest, resp.Reason)
	})

	s.Run("unknown action echoes the original text", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("foo"))
		s.Equal(models.StatusError, resp.Status)
		s.Equal("Invalid action type: foo", resp.Message)
		s.Equal(models.ReasonInvalidRequest, resp.Reason)
	})

	s.Run("unknown action echoes untrimmed text", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("  Merge "))
		s.Equal("Invalid action type:   Merge ", resp.Message)
	})

	s.Run("action tag is trimmed and case-insensitive", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("  insert\t").WithData(models.Fields(baseFields)))
		s.Equal(models.StatusSuccess, resp.Status)
		s.Equal("Record inserted successfully", resp.Message)
	})
}

// TestInsert verifies hashing of the nine sensitive fields.
func (s *ServiceSuite) TestInsert() {
	s.Run("missing data is rejected", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("INSERT"))
		s.Equal(models.StatusError, resp.Status)
		s.Equal("Missing data", resp.Message)
		s.Equal(models.ReasonMissingData, resp.Reason)
		s.Equal(0, s.store.Len())
	})

	s.Run("hashes sensitive fields and copies gender verbatim", func() {
		record := s.insert(map[string]string{
			models.FieldAadhaarNumber: "123412341234",
			models.FieldPanNumber:     "ABCDE1234F",
			models.FieldVoterID:       "VOT123",
			models.FieldDLNumber:      "DL-01",
			models.FieldForename:      "Asha",
			models.FieldSecondname:    "K",
			models.FieldLastname:      "Rao",
			models.FieldDOB:           "1990-01-01",
			models.FieldAddress:       "12 MG Road",
			models.FieldGender:        "F",
		})

		s.NotEmpty(record.LinkageKey)
		s.Equal(digestOf("123412341234"), *record.HashedAadhaarNumber)
		s.Equal(digestOf("ABCDE1234F"), *record.HashedPanNumber)
		s.Equal(digestOf("VOT123"), *record.HashedVoterID)
		s.Equal(digestOf("DL-01"), *record.HashedDLNumber)
		s.Equal(digestOf("Asha"), *record.HashedForename)
		s.Equal(digestOf("K"), *record.HashedSecondname)
		s.Equal(digestOf("Rao"), *record.HashedLastname)
		s.Equal(digestOf("1990-01-01"), *record.HashedDOB)
		s.Equal(digestOf("12 MG Road"), *record.HashedAddress)
		s.Equal("F", *record.Gender)

		stored, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		s.Equal(record, stored)
	})

	s.Run("absent fields stay absent", func() {
		record := s.insert(map[string]string{models.FieldForename: "Only"})
		s.Nil(record.HashedAadhaarNumber)
		s.Nil(record.HashedAddress)
		s.Nil(record.Gender)
		s.NotNil(record.HashedForename)
	})

	s.Run("null values stay absent", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("INSERT").WithData(map[string]*string{
			models.FieldForename: nil,
			models.FieldGender:   nil,
		}))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Nil(resp.Record.HashedForename)
		s.Nil(resp.Record.Gender)
	})

	s.Run("empty mapping inserts an empty record", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("INSERT").WithData(map[string]*string{}))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.NotEmpty(resp.Record.LinkageKey)
	})

	s.Run("each insert gets a fresh linkage key", func() {
		first := s.insert(baseFields)
		second := s.insert(baseFields)
		s.NotEqual(first.LinkageKey, second.LinkageKey)
	})
}

// TestUpdate verifies sparse-patch semantics.
func (s *ServiceSuite) TestUpdate() {
	s.Run("missing key is rejected", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").WithData(models.Fields(baseFields)))
		s.Equal(models.StatusError, resp.Status)
		s.Equal("oldAadhaarLinkageKey required", resp.Message)
		s.Equal(models.ReasonMissingKey, resp.Reason)
	})

	s.Run("unknown key is not found", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").WithKey("nope"))
		s.Equal(models.StatusNotFound, resp.Status)
		s.Equal("Record not found", resp.Message)
	})

	s.Run("gender-only patch keeps every digest", func() {
		original := s.insert(map[string]string{
			models.FieldAadhaarNumber: "1234",
			models.FieldDOB:           "1990-01-01",
			models.FieldForename:      "A",
			models.FieldLastname:      "B",
			models.FieldAddress:       "Home",
			models.FieldGender:        "M",
		})

		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").
			WithKey(original.LinkageKey.String()).
			WithData(models.Fields(map[string]string{models.FieldGender: "F"})))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Equal("Record updated successfully", resp.Message)

		stored, err := s.store.FindByID(s.ctx, original.LinkageKey)
		s.Require().NoError(err)
		s.Equal("F", *stored.Gender)

		expected := original.Clone()
		expected.Gender = stored.Gender
		s.Equal(expected, stored)
	})

	s.Run("patched field is rehashed and others untouched", func() {
		original := s.insert(baseFields)
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").
			WithKey(original.LinkageKey.String()).
			WithData(models.Fields(map[string]string{models.FieldForename: "A2"})))
		s.Require().Equal(models.StatusSuccess, resp.Status)

		s.Equal(digestOf("A2"), *resp.Record.HashedForename)
		s.Equal(*original.HashedAadhaarNumber, *resp.Record.HashedAadhaarNumber)
		s.Equal(*original.HashedDOB, *resp.Record.HashedDOB)
		s.Equal(*original.HashedLastname, *resp.Record.HashedLastname)
		s.Equal(original.LinkageKey, resp.Record.LinkageKey)
	})

	s.Run("empty mapping is a no-op", func() {
		original := s.insert(baseFields)
		before, err := s.store.FindByID(s.ctx, original.LinkageKey)
		s.Require().NoError(err)

		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").
			WithKey(original.LinkageKey.String()).
			WithData(map[string]*string{}))
		s.Require().Equal(models.StatusSuccess, resp.Status)

		after, err := s.store.FindByID(s.ctx, original.LinkageKey)
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("absent mapping is a no-op", func() {
		original := s.insert(baseFields)
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").WithKey(original.LinkageKey.String()))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Equal(original, resp.Record)
	})

	s.Run("explicit null clears the slot", func() {
		original := s.insert(map[string]string{
			models.FieldForename: "A",
			models.FieldAddress:  "Home",
		})
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").
			WithKey(original.LinkageKey.String()).
			WithData(map[string]*string{models.FieldAddress: nil}))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Nil(resp.Record.HashedAddress)
		s.Equal(*original.HashedForename, *resp.Record.HashedForename)
	})

	s.Run("unknown field names are ignored", func() {
		original := s.insert(baseFields)
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("UPDATE").
			WithKey(original.LinkageKey.String()).
			WithData(models.Fields(map[string]string{"linkage_key": "hijack"})))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Equal(original, resp.Record)
	})
}

// TestDelete verifies removal and not-found handling.
func (s *ServiceSuite) TestDelete() {
	s.Run("missing key is rejected", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("DELETE"))
		s.Equal(models.StatusError, resp.Status)
		s.Equal("oldAadhaarLinkageKey required", resp.Message)
	})

	s.Run("deletes then reports not found", func() {
		record := s.insert(baseFields)
		key := record.LinkageKey.String()

		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("DELETE").WithKey(key))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Equal("Record deleted successfully", resp.Message)
		s.Nil(resp.Record)

		_, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.ErrorIs(err, sentinel.ErrNotFound)

		again := s.svc.ProcessRequest(s.ctx, models.NewRequest("DELETE").WithKey(key))
		s.Equal(models.StatusNotFound, again.Status)
		s.Equal("Record not found", again.Message)
		s.Equal(models.ReasonNotFound, again.Reason)
	})
}

// TestSearch verifies exact tuple matching.
func (s *ServiceSuite) TestSearch() {
	s.Run("missing data is rejected", func() {
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH"))
		s.Equal(models.StatusError, resp.Status)
		s.Equal("Missing data for search", resp.Message)
	})

	s.Run("identical values match", func() {
		record := s.insert(baseFields)
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(baseFields)))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.Equal("Record found", resp.Message)
		s.Equal(record.LinkageKey, resp.Record.LinkageKey)
	})

	s.Run("one character difference does not match", func() {
		s.insert(baseFields)
		query := map[string]string{
			models.FieldAadhaarNumber: "1234",
			models.FieldDOB:           "1990-01-01",
			models.FieldForename:      "A2",
			models.FieldLastname:      "B",
		}
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(query)))
		s.Equal(models.StatusNotFound, resp.Status)
		s.Equal("No record found", resp.Message)
		s.Equal(models.ReasonNoMatch, resp.Reason)
		s.Nil(resp.Record)
	})

	s.Run("no case folding or trimming", func() {
		s.insert(baseFields)
		query := map[string]string{
			models.FieldAadhaarNumber: "1234",
			models.FieldDOB:           "1990-01-01",
			models.FieldForename:      "a",
			models.FieldLastname:      "B ",
		}
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(query)))
		s.Equal(models.StatusNotFound, resp.Status)
	})

	s.Run("non-match fields are ignored", func() {
		withExtras := map[string]string{models.FieldPanNumber: "PAN", models.FieldGender: "F"}
		for k, v := range baseFields {
			withExtras[k] = v
		}
		s.insert(withExtras)
		query := map[string]string{models.FieldPanNumber: "OTHER", models.FieldGender: "M"}
		for k, v := range baseFields {
			query[k] = v
		}
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(query)))
		s.Require().Equal(models.StatusSuccess, resp.Status)
		s.NotNil(resp.Record)
	})

	s.Run("partial query never falls back to a subset", func() {
		s.insert(baseFields)
		query := map[string]string{models.FieldAadhaarNumber: "1234", models.FieldDOB: "1990-01-01"}
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(query)))
		s.Equal(models.StatusNotFound, resp.Status)
	})

	s.Run("search does not mutate state", func() {
		record := s.insert(baseFields)
		before := s.store.Len()
		s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(baseFields)))
		s.Equal(before, s.store.Len())
		stored, err := s.store.FindByID(s.ctx, record.LinkageKey)
		s.Require().NoError(err)
		s.Equal(record, stored)
	})

	s.Run("matches after delete stop", func() {
		record := s.insert(map[string]string{
			models.FieldAadhaarNumber: "9999",
			models.FieldDOB:           "2000-02-02",
			models.FieldForename:      "Solo",
			models.FieldLastname:      "Case",
		})
		s.svc.ProcessRequest(s.ctx, models.NewRequest("DELETE").WithKey(record.LinkageKey.String()))
		resp := s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(map[string]string{
			models.FieldAadhaarNumber: "9999",
			models.FieldDOB:           "2000-02-02",
			models.FieldForename:      "Solo",
			models.FieldLastname:      "Case",
		})))
		s.Equal(models.StatusNotFound, resp.Status)
	})
}

// TestKeyedNormalizer verifies that a peppered hasher is applied consistently.
func (s *ServiceSuite) TestKeyedNormalizer() {
	hasher, err := hashing.BLAKE2b([]byte("pepper"))
	s.Require().NoError(err)
	svc := service.New(s.store, service.WithNormalizer(hashing.NewNormalizer(hasher)))

	resp := svc.ProcessRequest(s.ctx, models.NewRequest("INSERT").WithData(models.Fields(baseFields)))
	s.Require().Equal(models.StatusSuccess, resp.Status)
	s.Equal(hasher.Hash([]byte("A")), *resp.Record.HashedForename)

	found := svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(baseFields)))
	s.Equal(models.StatusSuccess, found.Status)

	// The default SHA-256 service cannot see peppered records.
	plain := service.New(s.store)
	miss := plain.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(baseFields)))
	s.Equal(models.StatusNotFound, miss.Status)
}

// TestObservers verifies metrics and audit side channels.
func (s *ServiceSuite) TestObservers() {
	record := s.insert(baseFields)
	s.svc.ProcessRequest(s.ctx, models.NewRequest("SEARCH").WithData(models.Fields(baseFields)))
	s.svc.ProcessRequest(s.ctx, models.NewRequest("bogus"))

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues("INSERT", "SUCCESS", "")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues("SEARCH", "SUCCESS", "")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.RequestsTotal.WithLabelValues("INVALID", "ERROR", "invalid_request")))

	events, err := s.audit.ListByLinkageKey(s.ctx, record.LinkageKey.String())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.EventLinkageInserted, events[0].Action)
	s.Equal(audit.EventLinkageSearched, events[1].Action)
	s.Equal("req-test", events[0].RequestID)

	all, err := s.audit.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(audit.EventLinkageRejected, all[2].Action)
	s.Equal("ERROR", all[2].Status)
}

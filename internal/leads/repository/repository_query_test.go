package repository

import (
	"strings"
	"testing"
)

func TestUpsertEnquiryQueryTargetsPartialUniqueIndex(t *testing.T) {
	query := strings.ToLower(upsertEnquiryQuery)

	requiredFragments := []string{
		"on conflict (dedup_key) where source = 'enquiry'",
		"where leads.stage <> 'converted'",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected upsert query fragment %q to be present", fragment)
		}
	}
}

func TestUpsertEnquiryQueryReopensDisqualifiedLeads(t *testing.T) {
	query := strings.ToLower(upsertEnquiryQuery)

	requiredFragments := []string{
		"stage = case when leads.stage = 'disqualified' then 'new' else leads.stage end",
		"disqualify_reason = case when leads.stage = 'disqualified' then null else leads.disqualify_reason end",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected reopen fragment %q to be present", fragment)
		}
	}
}

func TestUpdateStageQuerySetsQualifiedAtOnce(t *testing.T) {
	query := strings.ToLower(updateStageQuery)

	if !strings.Contains(query, "coalesce(qualified_at, now())") {
		t.Fatal("qualified_at must be set through COALESCE so it is written at most once")
	}
	if !strings.Contains(query, "case when $2 = 'qualified'") {
		t.Fatal("qualified_at must only be touched when entering the qualified stage")
	}
	if !strings.Contains(query, "disqualify_reason = $3") {
		t.Fatal("the reason column must be rewritten on every stage change so re-qualification clears it")
	}
}

func TestMarkConvertedQueryGuardsSourceStage(t *testing.T) {
	query := strings.ToLower(markConvertedQuery)

	if !strings.Contains(query, "where id = $1 and stage = 'qualified'") {
		t.Fatal("conversion must only commit from the qualified stage")
	}
	if !strings.Contains(query, "coalesce(converted_at, now())") {
		t.Fatal("converted_at must be set through COALESCE so it is written at most once")
	}
	if !strings.Contains(query, "service_request_id = $2") {
		t.Fatal("the service request link must be written in the same statement as the stage")
	}
}

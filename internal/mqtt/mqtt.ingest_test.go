// FilePath: internal/mqtt/mqtt.ingest_test.go
package mqtt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartech/facilityhub/internal/models"
)

type captureSubmitter struct {
	submissions []*models.ReadingSubmission
	err         error
}

func (c *captureSubmitter) SubmitReading(_ context.Context, submission *models.ReadingSubmission) (*models.Reading, error) {
	c.submissions = append(c.submissions, submission)
	return &models.Reading{FacilityID: submission.FacilityID}, c.err
}

func TestFacilityFromTopic(t *testing.T) {
	assert.Equal(t, "fac_or1", facilityFromTopic("facilities/fac_or1/readings"))
	assert.Equal(t, "", facilityFromTopic("facilities/fac_or1/status"))
	assert.Equal(t, "", facilityFromTopic("other/fac_or1/readings"))
	assert.Equal(t, "", facilityFromTopic("facilities/readings"))
}

func TestHandleMessage_TopicSegmentWinsOverPayload(t *testing.T) {
	submitter := &captureSubmitter{}
	ingest := &Ingest{svc: submitter}

	err := ingest.handleMessage("facilities/fac_or1/readings",
		[]byte(`{"facility_id":"fac_other","temperature":21.5}`))

	require.NoError(t, err)
	require.Len(t, submitter.submissions, 1)
	assert.Equal(t, "fac_or1", submitter.submissions[0].FacilityID)
	require.NotNil(t, submitter.submissions[0].Temperature)
	assert.InDelta(t, 21.5, *submitter.submissions[0].Temperature, 0.001)
}

func TestHandleMessage_PayloadFacilityUsedOffTopicShape(t *testing.T) {
	submitter := &captureSubmitter{}
	ingest := &Ingest{svc: submitter}

	err := ingest.handleMessage("ingest", []byte(`{"facility_id":"fac_icu"}`))

	require.NoError(t, err)
	require.Len(t, submitter.submissions, 1)
	assert.Equal(t, "fac_icu", submitter.submissions[0].FacilityID)
}

func TestHandleMessage_InvalidJSONRejected(t *testing.T) {
	submitter := &captureSubmitter{}
	ingest := &Ingest{svc: submitter}

	err := ingest.handleMessage("facilities/fac_or1/readings", []byte("not json"))

	require.Error(t, err)
	assert.Empty(t, submitter.submissions)
}

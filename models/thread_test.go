package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadParticipants(t *testing.T) {
	thread := Thread{ClientID: "client-1", FreelancerID: "freelancer-1"}

	assert.True(t, thread.HasParticipant("client-1"))
	assert.True(t, thread.HasParticipant("freelancer-1"))
	assert.False(t, thread.HasParticipant("stranger"))

	assert.Equal(t, "freelancer-1", thread.Counterpart("client-1"))
	assert.Equal(t, "client-1", thread.Counterpart("freelancer-1"))
	assert.Equal(t, "", thread.Counterpart("stranger"))
}

func TestCreateThreadRequestValidate(t *testing.T) {
	req := CreateThreadRequest{BountyID: "  bounty-1  ", ClientID: "client-1"}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "bounty-1", req.BountyID)

	assert.Error(t, (&CreateThreadRequest{ClientID: "client-1"}).Validate())
	assert.Error(t, (&CreateThreadRequest{BountyID: "bounty-1"}).Validate())
}

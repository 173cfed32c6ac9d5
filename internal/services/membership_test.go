package services

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog-backend/internal/models"
)

var (
	questExistsQuery   = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM quests")
	ownerCheckQuery    = regexp.QuoteMeta("role = 'owner'")
	memberInsertQuery  = "INSERT INTO user_quests"
	statusUpdateQuery  = "UPDATE user_quests SET status"
	membershipDelQuery = "DELETE FROM user_quests"
	inviteMemberQuery  = regexp.QuoteMeta("role IN ('owner', 'participant')")
)

func TestJoinQuestCreatesActiveParticipant(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	questID := uuid.New()

	mock.ExpectQuery(questExistsQuery).WithArgs(questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(memberInsertQuery).
		WithArgs(userID, questID, models.RoleParticipant, models.MembershipActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "joined_at"}).
			AddRow(uuid.New().String(), time.Now()))

	m, err := JoinQuest(userID.String(), questID.String())
	require.NoError(t, err)
	assert.Equal(t, models.RoleParticipant, m.Role)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, userID, m.UserID)
	expectationsMet(t, mock)
}

func TestJoinQuestDuplicateMembership(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	questID := uuid.New()

	mock.ExpectQuery(questExistsQuery).WithArgs(questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	// ON CONFLICT DO NOTHING returns no row when the pair already exists.
	mock.ExpectQuery(memberInsertQuery).
		WillReturnError(sql.ErrNoRows)

	_, err := JoinQuest(userID.String(), questID.String())
	assert.ErrorIs(t, err, ErrAlreadyExists)
	expectationsMet(t, mock)
}

func TestJoinQuestMissingQuest(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(questExistsQuery).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := JoinQuest(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

func TestJoinQuestInvalidUUID(t *testing.T) {
	newMockDB(t)

	_, err := JoinQuest("not-a-uuid", uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestJoinCreatesPendingRow(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	questID := uuid.New()

	mock.ExpectQuery(questExistsQuery).WithArgs(questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(memberInsertQuery).
		WithArgs(userID, questID, models.RoleParticipant, models.MembershipPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "joined_at"}).
			AddRow(uuid.New().String(), time.Now()))

	m, err := RequestJoin(userID.String(), questID.String())
	require.NoError(t, err)
	assert.Equal(t, models.MembershipPending, m.Status)
	expectationsMet(t, mock)
}

func TestInviteRequiresCallerMembership(t *testing.T) {
	mock := newMockDB(t)

	callerID := uuid.New()
	questID := uuid.New()

	mock.ExpectQuery(inviteMemberQuery).WithArgs(callerID, questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := Invite(callerID.String(), questID.String(), uuid.NewString())
	assert.ErrorIs(t, err, ErrForbidden)
	expectationsMet(t, mock)
}

func TestInviteCreatesInvitedRowForReceiver(t *testing.T) {
	mock := newMockDB(t)

	callerID := uuid.New()
	questID := uuid.New()
	receiverID := uuid.New()

	mock.ExpectQuery(inviteMemberQuery).WithArgs(callerID, questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(questExistsQuery).WithArgs(questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(memberInsertQuery).
		WithArgs(receiverID, questID, models.RoleParticipant, models.MembershipInvited).
		WillReturnRows(sqlmock.NewRows([]string{"id", "joined_at"}).
			AddRow(uuid.New().String(), time.Now()))

	m, err := Invite(callerID.String(), questID.String(), receiverID.String())
	require.NoError(t, err)
	assert.Equal(t, models.MembershipInvited, m.Status)
	assert.Equal(t, receiverID, m.UserID)
	expectationsMet(t, mock)
}

func TestAcceptInviteActivatesRow(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	questID := uuid.New()

	mock.ExpectQuery(statusUpdateQuery).
		WithArgs(models.MembershipActive, userID, questID, models.MembershipInvited).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "quest_id", "role", "status", "joined_at"}).
			AddRow(uuid.New().String(), userID.String(), questID.String(), "participant", "active", time.Now()))

	m, err := AcceptInvite(userID.String(), questID.String())
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, m.Status)
	expectationsMet(t, mock)
}

func TestAcceptInviteWrongStateLosesRace(t *testing.T) {
	mock := newMockDB(t)

	// The row is no longer invited (already accepted, declined, or never
	// existed); the conditional update matches nothing.
	mock.ExpectQuery(statusUpdateQuery).WillReturnError(sql.ErrNoRows)

	_, err := AcceptInvite(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

func TestApproveRequestOwnerOnly(t *testing.T) {
	mock := newMockDB(t)

	callerID := uuid.New()
	questID := uuid.New()

	mock.ExpectQuery(ownerCheckQuery).WithArgs(callerID, questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := ApproveRequest(callerID.String(), questID.String(), uuid.NewString())
	assert.ErrorIs(t, err, ErrForbidden)
	expectationsMet(t, mock)
}

func TestApproveRequestActivatesPendingRow(t *testing.T) {
	mock := newMockDB(t)

	ownerID := uuid.New()
	questID := uuid.New()
	targetID := uuid.New()

	mock.ExpectQuery(ownerCheckQuery).WithArgs(ownerID, questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(statusUpdateQuery).
		WithArgs(models.MembershipActive, targetID, questID, models.MembershipPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "quest_id", "role", "status", "joined_at"}).
			AddRow(uuid.New().String(), targetID.String(), questID.String(), "participant", "active", time.Now()))

	m, err := ApproveRequest(ownerID.String(), questID.String(), targetID.String())
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, targetID, m.UserID)
	expectationsMet(t, mock)
}

func TestDeclineInviteMissingRow(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec(membershipDelQuery).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := DeclineInvite(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

func TestDeclineInviteDeletesOwnRow(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	questID := uuid.New()

	mock.ExpectExec(membershipDelQuery).
		WithArgs(userID, questID, models.MembershipInvited).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, DeclineInvite(userID.String(), questID.String()))
	expectationsMet(t, mock)
}

func TestRemoveMemberCannotTouchOwnerRow(t *testing.T) {
	mock := newMockDB(t)

	ownerID := uuid.New()
	questID := uuid.New()
	targetID := uuid.New()

	mock.ExpectQuery(ownerCheckQuery).WithArgs(ownerID, questID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	// The delete is scoped to participant rows, so targeting the owner
	// affects nothing.
	mock.ExpectExec(membershipDelQuery).
		WithArgs(targetID, questID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := RemoveMember(ownerID.String(), questID.String(), targetID.String())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

func TestGetMembershipNotFound(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("FROM user_quests").WillReturnError(sql.ErrNoRows)

	_, err := GetMembership(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

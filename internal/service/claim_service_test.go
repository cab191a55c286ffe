package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/repository"
)

func newClaimFixture(t *testing.T, now time.Time) (*memDB, *ClaimService) {
	t.Helper()
	db := newMemDB()
	svc := NewClaimService(db, memProfiles{db}, memClaims{db}, memLedger{db}, memStats{db})
	svc.now = fixedClock(now)
	return db, svc
}

func TestClaim_CreditsRewardAndLedger(t *testing.T) {
	db, svc := newClaimFixture(t, inWindow)
	user := db.addProfile(&domain.Profile{VIPLevel: 3, Balance: dec("10"), TotalEarned: dec("1")})

	res, err := svc.Claim(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	reward := domain.DailyReward(3)
	p := db.profiles[user.ID]
	if !p.Balance.Equal(dec("10").Add(reward)) || !p.TotalEarned.Equal(dec("1").Add(reward)) {
		t.Fatalf("balances = %s/%s", p.Balance, p.TotalEarned)
	}
	if p.DailyChallenges != 1 {
		t.Fatalf("daily_challenges = %d", p.DailyChallenges)
	}
	if res.Transaction.Type != domain.TxTypeDailyReward || !res.Transaction.Amount.Equal(reward) {
		t.Fatalf("ledger = %+v", res.Transaction)
	}
	if !res.NextClaimAt.Equal(inWindow.Add(24 * time.Hour)) {
		t.Fatalf("next = %v", res.NextClaimAt)
	}
	if !db.stats[repository.StatTotalRewardsPaid].Equal(reward) {
		t.Fatal("platform stats not updated")
	}
}

func TestClaim_TwentyFourHourBoundary(t *testing.T) {
	db, svc := newClaimFixture(t, inWindow)
	user := db.addProfile(&domain.Profile{VIPLevel: 1})
	db.claims = append(db.claims, &domain.DailyClaim{ID: 1, UserID: user.ID, CreatedAt: inWindow.Add(-24 * time.Hour).Add(time.Second)})

	_, err := svc.Claim(context.Background(), user.ID)
	var early *ClaimTooEarlyError
	if !errors.As(err, &early) || !errors.Is(err, ErrClaimTooEarly) {
		t.Fatalf("err = %v, want too early", err)
	}
	if early.Remaining != time.Second {
		t.Fatalf("remaining = %v", early.Remaining)
	}

	// ровно 24 часа - уже можно
	svc.now = fixedClock(inWindow.Add(time.Second))
	if _, err := svc.Claim(context.Background(), user.ID); err != nil {
		t.Fatalf("claim at boundary: %v", err)
	}
}

func TestClaim_RequiresVIP(t *testing.T) {
	db, svc := newClaimFixture(t, inWindow)
	user := db.addProfile(&domain.Profile{VIPLevel: 0, Balance: dec("5")})

	if _, err := svc.Claim(context.Background(), user.ID); !errors.Is(err, ErrNoVIP) {
		t.Fatalf("err = %v", err)
	}
	if len(db.claims) != 0 || len(db.ledger) != 0 || db.commits != 0 {
		t.Fatal("no-vip claim wrote rows")
	}
}

func TestClaim_StatsFailureIsIgnored(t *testing.T) {
	db, svc := newClaimFixture(t, inWindow)
	user := db.addProfile(&domain.Profile{VIPLevel: 2})
	db.failStats = true

	if _, err := svc.Claim(context.Background(), user.ID); err != nil {
		t.Fatalf("claim failed because of stats: %v", err)
	}
}

func TestClaimStatus(t *testing.T) {
	db, svc := newClaimFixture(t, inWindow)
	user := db.addProfile(&domain.Profile{VIPLevel: 2})

	st, err := svc.Status(context.Background(), user.ID)
	if err != nil || !st.Eligible || st.NextClaimAt != nil {
		t.Fatalf("fresh status = %+v, %v", st, err)
	}

	db.claims = append(db.claims, &domain.DailyClaim{ID: 1, UserID: user.ID, CreatedAt: inWindow.Add(-time.Hour)})
	st, err = svc.Status(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Eligible || st.WaitSeconds != int64(23*time.Hour/time.Second) {
		t.Fatalf("status = %+v", st)
	}
	if !st.Reward.Equal(domain.DailyReward(2)) {
		t.Fatalf("reward = %s", st.Reward)
	}
}

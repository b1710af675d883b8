package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/minibank/internal/usecase"
	"github.com/iho/minibank/internal/usecase/mocks"
)

func TestReconciliationUseCase_ReconcileAccount(t *testing.T) {
	t.Run("balance matches log after ledger activity", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		log := mocks.NewMockTransactionLog()
		ledger := usecase.NewLedgerUseCase(mocks.NewMockTransactionManager(), accRepo, log, mocks.NewMockIDGenerator())
		uc := usecase.NewReconciliationUseCase(accRepo, log, mocks.NewMockLedgerRepository())

		seedAccount(accRepo, "1111111111", alice.ID, 0)
		seedAccount(accRepo, "2222222222", bob.ID, 0)

		ctx := context.Background()

		if _, err := ledger.Deposit(ctx, alice, usecase.DepositInput{
			AccountNumber: "1111111111",
			Amount:        decimal.NewFromInt(100),
		}); err != nil {
			t.Fatalf("Deposit() unexpected error: %v", err)
		}

		if _, err := ledger.Transfer(ctx, alice, usecase.TransferInput{
			FromAccountNumber: "1111111111",
			ToAccountNumber:   "2222222222",
			Amount:            decimal.NewFromInt(40),
		}); err != nil {
			t.Fatalf("Transfer() unexpected error: %v", err)
		}

		for _, number := range []string{"1111111111", "2222222222"} {
			result, err := uc.ReconcileAccount(ctx, number)
			if err != nil {
				t.Fatalf("ReconcileAccount(%s) unexpected error: %v", number, err)
			}
			if !result.Reconciled {
				t.Errorf("account %s not reconciled: recorded %s, calculated %s",
					number, result.RecordedBalance, result.CalculatedBalance)
			}
		}
	})

	t.Run("detects drifted balance", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		log := mocks.NewMockTransactionLog()
		uc := usecase.NewReconciliationUseCase(accRepo, log, mocks.NewMockLedgerRepository())

		// Balance says 100 but the log is empty.
		seedAccount(accRepo, "1111111111", alice.ID, 100)

		result, err := uc.ReconcileAccount(context.Background(), "1111111111")
		if err != nil {
			t.Fatalf("ReconcileAccount() unexpected error: %v", err)
		}

		if result.Reconciled {
			t.Error("expected discrepancy to be detected")
		}
		if !result.Difference.Equal(decimal.NewFromInt(100)) {
			t.Errorf("difference = %s, want 100", result.Difference)
		}
	})
}

func TestReconciliationUseCase_CheckConsistency(t *testing.T) {
	t.Run("consistent ledger", func(t *testing.T) {
		uc := usecase.NewReconciliationUseCase(mocks.NewMockAccountRepository(), mocks.NewMockTransactionLog(), mocks.NewMockLedgerRepository())

		ok, discrepancies, err := uc.CheckConsistency(context.Background())
		if err != nil {
			t.Fatalf("CheckConsistency() unexpected error: %v", err)
		}
		if !ok || len(discrepancies) != 0 {
			t.Errorf("expected consistent ledger, got %d discrepancies", len(discrepancies))
		}
	})

	t.Run("reports discrepancies", func(t *testing.T) {
		ledgerRepo := mocks.NewMockLedgerRepository()
		ledgerRepo.FindDiscrepanciesFunc = func(ctx context.Context) ([]*usecase.Discrepancy, error) {
			return []*usecase.Discrepancy{
				{
					AccountNumber:     "1111111111",
					RecordedBalance:   decimal.NewFromInt(100),
					CalculatedBalance: decimal.NewFromInt(90),
					Difference:        decimal.NewFromInt(10),
				},
			}, nil
		}

		uc := usecase.NewReconciliationUseCase(mocks.NewMockAccountRepository(), mocks.NewMockTransactionLog(), ledgerRepo)

		ok, discrepancies, err := uc.CheckConsistency(context.Background())
		if err != nil {
			t.Fatalf("CheckConsistency() unexpected error: %v", err)
		}
		if ok {
			t.Error("expected inconsistency")
		}
		if len(discrepancies) != 1 || discrepancies[0].AccountNumber != "1111111111" {
			t.Errorf("unexpected discrepancies: %+v", discrepancies)
		}
	})
}

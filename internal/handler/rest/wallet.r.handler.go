package hrest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"greenwallet-service/internal/domain"
	"greenwallet-service/internal/usecase"
	"greenwallet-service/pkg/response"
	"greenwallet-service/pkg/xerrors"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type WalletRestHandler struct {
	walletUC *usecase.WalletUsecase
	ledgerUC *usecase.LedgerUsecase
}

func NewWalletRestHandler(walletUC *usecase.WalletUsecase, ledgerUC *usecase.LedgerUsecase) *WalletRestHandler {
	return &WalletRestHandler{
		walletUC: walletUC,
		ledgerUC: ledgerUC,
	}
}

func (h *WalletRestHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListWallets)
	r.Post("/", h.CreateWallet)
	r.Get("/number/{walletNumber}", h.GetWalletByNumber)
	r.Route("/{walletID}", func(r chi.Router) {
		r.Get("/", h.GetWallet)
		r.Put("/", h.UpdateWallet)
		r.Delete("/", h.DeleteWallet)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/batches", h.ListBatches)
		r.Post("/issue", h.IssueCredits)
		r.Post("/quick-issue", h.QuickIssueCredits)
		r.Post("/retire", h.RetireCredits)
		r.Post("/transfer", h.TransferCredits)
	})
	return r
}

// ==================== WALLET CRUD ====================

func (h *WalletRestHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var in domain.WalletCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), &in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, wallet)
}

func (h *WalletRestHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.walletUC.GetAllWallets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, wallets)
}

func (h *WalletRestHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	wallet, err := h.walletUC.GetWalletByID(r.Context(), walletID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, wallet)
}

func (h *WalletRestHandler) GetWalletByNumber(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "walletNumber"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid wallet number")
		return
	}
	wallet, err := h.walletUC.GetWalletByNumber(r.Context(), number)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, wallet)
}

func (h *WalletRestHandler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	var in domain.WalletUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.walletUC.UpdateWallet(r.Context(), walletID, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *WalletRestHandler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	if err := h.walletUC.DeleteWallet(r.Context(), walletID); err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

// ==================== LEDGER OPERATIONS ====================

type issueJSON struct {
	ProjectID int64           `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
}

func (h *WalletRestHandler) IssueCredits(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	var in issueJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.ledgerUC.IssueCredits(r.Context(), walletID, in.ProjectID, in.Amount, in.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, rec)
}

type amountJSON struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

func (h *WalletRestHandler) QuickIssueCredits(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	var in amountJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.ledgerUC.QuickIssueCredits(r.Context(), walletID, in.Amount, in.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, rec)
}

func (h *WalletRestHandler) RetireCredits(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	var in amountJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.ledgerUC.RetireCredits(r.Context(), walletID, in.Amount, in.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, rec)
}

type transferJSON struct {
	ToWalletID int64           `json:"to_wallet_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
}

func (h *WalletRestHandler) TransferCredits(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	var in transferJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.ledgerUC.TransferCredits(r.Context(), walletID, in.ToWalletID, in.Amount, in.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, rec)
}

// ==================== HISTORY ====================

func (h *WalletRestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	txns, err := h.ledgerUC.GetWalletTransactions(r.Context(), walletID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}

func (h *WalletRestHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	walletID, ok := walletIDParam(w, r)
	if !ok {
		return
	}
	batches, err := h.ledgerUC.GetWalletBatches(r.Context(), walletID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, batches)
}

// ==================== HELPERS ====================

func walletIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	walletID, err := strconv.ParseInt(chi.URLParam(r, "walletID"), 10, 64)
	if err != nil || walletID <= 0 {
		response.Error(w, http.StatusBadRequest, "invalid wallet id")
		return 0, false
	}
	return walletID, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrWalletNotFound), errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrValidation),
		errors.Is(err, xerrors.ErrInvalidAmount),
		errors.Is(err, xerrors.ErrNoteRequired),
		errors.Is(err, xerrors.ErrSameWallet):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrInsufficientBalance),
		errors.Is(err, xerrors.ErrNonZeroBalance),
		errors.Is(err, xerrors.ErrDuplicateWalletNumber):
		response.Error(w, http.StatusConflict, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/services"
)

type LoansController struct {
	loans *services.LoanManager
	audit *audit.Service
}

func NewLoansController(loans *services.LoanManager, auditService *audit.Service) *LoansController {
	return &LoansController{loans: loans, audit: auditService}
}

type LendRequest struct {
	Borrower string `json:"borrower"`
}

// Lend handles POST /api/books/:id/loans
func (lc *LoansController) Lend(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LendRequest
	if !bindJSON(c, &req) {
		return
	}
	loan, err := lc.loans.Lend(c.Request.Context(), actor, id, req.Borrower)
	if err != nil {
		respondServiceError(c, err, "lend book")
		return
	}
	if lc.audit != nil {
		lc.audit.LogLoan(actor.UserID, "loan_create", loan.ID,
			fmt.Sprintf("Lent book %d to %s", loan.BookID, loan.BorrowerName))
	}
	respondCreated(c, loan)
}

// Return handles POST /api/loans/:id/return
func (lc *LoansController) Return(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.loans.Return(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "return book")
		return
	}
	if lc.audit != nil {
		lc.audit.LogLoan(actor.UserID, "loan_return", loan.ID,
			fmt.Sprintf("Book %d returned by %s", loan.BookID, loan.BorrowerName))
	}
	c.JSON(http.StatusOK, loan)
}

// Mine handles GET /api/loans/mine
func (lc *LoansController) Mine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	list, err := lc.loans.MyLoans(actor)
	if err != nil {
		respondServiceError(c, err, "my loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": list, "count": len(list)})
}

// Active handles GET /api/loans
func (lc *LoansController) Active(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	list, err := lc.loans.ActiveLoans(actor)
	if err != nil {
		respondServiceError(c, err, "active loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": list, "count": len(list)})
}

// History handles GET /api/books/:id/loans
func (lc *LoansController) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := lc.loans.History(id)
	if err != nil {
		respondServiceError(c, err, "loan history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": list, "count": len(list)})
}

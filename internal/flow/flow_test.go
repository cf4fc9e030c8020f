package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BTreeMap/FinAssist/internal/extract"
	"github.com/BTreeMap/FinAssist/internal/models"
	"github.com/BTreeMap/FinAssist/internal/session"
	"github.com/BTreeMap/FinAssist/internal/store"
)

// fakeAnswerer substitutes the answer engine in flow tests.
type fakeAnswerer struct {
	answer       string
	err          error
	calls        int
	lastQuestion string
	lastContext  string
}

func (f *fakeAnswerer) Answer(ctx context.Context, question, docContext string) (string, error) {
	f.calls++
	f.lastQuestion = question
	f.lastContext = docContext
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// newTestStore seeds a store with one known customer and three transactions.
func newTestStore(t *testing.T) *store.InMemoryStore {
	t.Helper()
	st := store.NewInMemoryStore()
	id, err := st.AddCustomer(models.Customer{
		FirstName:     "Jane",
		LastName:      "Doe",
		Phone:         "5551234567",
		ZipCode:       "90210",
		AccountNumber: "ACCT0000000001",
		Balance:       12500.5,
	})
	if err != nil {
		t.Fatalf("failed to add customer: %v", err)
	}
	txns := []models.Transaction{
		{CustomerID: id, Date: "2026-08-01", Description: "Rent Payment", Amount: -1200},
		{CustomerID: id, Date: "2026-08-15", Description: "Groceries", Amount: -98.4},
		{CustomerID: id, Date: "2026-08-20", Description: "Gym Membership", Amount: -45},
	}
	for _, tx := range txns {
		if err := st.AddTransaction(tx); err != nil {
			t.Fatalf("failed to add transaction: %v", err)
		}
	}
	return st
}

func newTestFlow(t *testing.T, answerer *fakeAnswerer) (*BankingFlow, *store.InMemoryStore) {
	t.Helper()
	st := newTestStore(t)
	// A typed nil pointer would not compare equal to a nil interface inside
	// the flow, so only pass the fake through when it is actually set.
	if answerer == nil {
		return NewBankingFlow(st, session.NewInMemoryManager(), nil, extract.NewTextExtractor()), st
	}
	return NewBankingFlow(st, session.NewInMemoryManager(), answerer, extract.NewTextExtractor()), st
}

// turn runs one conversation turn and fails the test on storage errors.
func turn(t *testing.T, f *BankingFlow, sessionID, utterance string) string {
	t.Helper()
	reply, _, err := f.ProcessMessage(context.Background(), sessionID, utterance)
	if err != nil {
		t.Fatalf("turn %q failed: %v", utterance, err)
	}
	return reply
}

// verifyExisting walks a session through the existing-customer verification.
func verifyExisting(t *testing.T, f *BankingFlow, sessionID string) {
	t.Helper()
	for _, u := range []string{"hi", "existing", "5551234567"} {
		turn(t, f, sessionID, u)
	}
	reply := turn(t, f, sessionID, "90210")
	if !strings.Contains(reply, "Welcome back Jane!") {
		t.Fatalf("verification did not complete, got reply %q", reply)
	}
}

func stepOf(t *testing.T, f *BankingFlow, sessionID string) models.StepType {
	t.Helper()
	step, err := f.Step(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	return step
}

func TestExistingCustomerVerification(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s1"

	reply := turn(t, f, id, "hi")
	if !strings.Contains(reply, "existing customer") {
		t.Errorf("opening turn: got %q", reply)
	}
	if got := stepOf(t, f, id); got != models.StepChooseType {
		t.Errorf("after opening: step = %q, want %q", got, models.StepChooseType)
	}

	reply = turn(t, f, id, "I'm an existing customer")
	if reply != replyAskPhone {
		t.Errorf("type selection: got %q, want %q", reply, replyAskPhone)
	}

	reply = turn(t, f, id, "5551234567")
	if reply != replyAskZip {
		t.Errorf("phone lookup: got %q, want %q", reply, replyAskZip)
	}

	reply = turn(t, f, id, "90210")
	if !strings.Contains(reply, "Welcome back Jane!") {
		t.Errorf("zip check: got %q", reply)
	}
	if got := stepOf(t, f, id); got != models.StepVerifiedExisting {
		t.Errorf("after verification: step = %q, want %q", got, models.StepVerifiedExisting)
	}
}

func TestChooseTypeRepromptsInPlace(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-reprompt"
	turn(t, f, id, "hi")

	for i := 0; i < 3; i++ {
		reply := turn(t, f, id, "purple monkey dishwasher")
		if reply != replyChooseType {
			t.Fatalf("re-prompt %d: got %q, want %q", i, reply, replyChooseType)
		}
		if got := stepOf(t, f, id); got != models.StepChooseType {
			t.Fatalf("re-prompt %d: step = %q, want %q", i, got, models.StepChooseType)
		}
	}
}

func TestPhoneNotFoundRetries(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-phone"
	turn(t, f, id, "hi")
	turn(t, f, id, "existing")

	reply := turn(t, f, id, "0000000000")
	if reply != replyPhoneNotFound {
		t.Errorf("unknown phone: got %q, want %q", reply, replyPhoneNotFound)
	}
	if got := stepOf(t, f, id); got != models.StepAwaitPhone {
		t.Errorf("unknown phone: step = %q, want %q", got, models.StepAwaitPhone)
	}

	// The retry with the right number still works.
	reply = turn(t, f, id, "5551234567")
	if reply != replyAskZip {
		t.Errorf("retry: got %q, want %q", reply, replyAskZip)
	}
}

func TestZipMismatchKeepsIdentity(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-zip"
	turn(t, f, id, "hi")
	turn(t, f, id, "existing")
	turn(t, f, id, "5551234567")

	reply := turn(t, f, id, "11111")
	if reply != replyZipMismatch {
		t.Errorf("zip mismatch: got %q, want %q", reply, replyZipMismatch)
	}
	if got := stepOf(t, f, id); got != models.StepAwaitZip {
		t.Errorf("zip mismatch: step = %q, want %q", got, models.StepAwaitZip)
	}

	// The looked-up identity survived the mismatch.
	reply = turn(t, f, id, "90210")
	if !strings.Contains(reply, "Welcome back Jane!") {
		t.Errorf("retry zip: got %q", reply)
	}
}

func TestNewUserLeadCapture(t *testing.T) {
	f, st := newTestFlow(t, nil)
	id := "s-new"
	turn(t, f, id, "hi")

	reply := turn(t, f, id, "I want to open an account")
	if reply != replyAskName {
		t.Errorf("new intent: got %q, want %q", reply, replyAskName)
	}

	turn(t, f, id, "john SMITH")
	turn(t, f, id, "4165550199")
	reply = turn(t, f, id, "john@example.com")
	if !strings.Contains(reply, "Thanks John Smith!") {
		t.Errorf("lead complete: got %q", reply)
	}
	if got := stepOf(t, f, id); got != models.StepVerifiedNew {
		t.Errorf("lead complete: step = %q, want %q", got, models.StepVerifiedNew)
	}

	leads, err := st.GetLeads()
	if err != nil {
		t.Fatalf("GetLeads failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("captured leads = %d, want 1", len(leads))
	}
	lead := leads[0]
	if lead.Name != "John Smith" || lead.Phone != "4165550199" || lead.Email != "john@example.com" {
		t.Errorf("lead = %+v, want John Smith / 4165550199 / john@example.com", lead)
	}
}

func TestNewUserCannotQueryAccounts(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-gate"
	turn(t, f, id, "hi")
	turn(t, f, id, "new")
	turn(t, f, id, "Pat Lee")
	turn(t, f, id, "4165550100")
	turn(t, f, id, "pat@example.com")

	for _, u := range []string{"what's my balance", "show my recent transactions"} {
		reply := turn(t, f, id, u)
		if strings.Contains(reply, "$") || strings.Contains(reply, "transactions:") {
			t.Errorf("new-user session answered account query %q: %q", u, reply)
		}
		if !strings.Contains(reply, "Anything else") {
			t.Errorf("account query %q should fall through to topic list, got %q", u, reply)
		}
	}
}

func TestBalanceFormatting(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-balance"
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "what's my balance?")
	if !strings.Contains(reply, "$12,500.50") {
		t.Errorf("balance reply missing formatted amount: %q", reply)
	}
}

func TestRecentTransactionsNewestFirst(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-txn"
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "recent transactions please")
	if !strings.Contains(reply, "Here are your last 3 transactions:") {
		t.Fatalf("transactions reply: %q", reply)
	}
	gym := strings.Index(reply, "Gym Membership")
	rent := strings.Index(reply, "Rent Payment")
	if gym == -1 || rent == -1 || gym > rent {
		t.Errorf("transactions not newest-first: %q", reply)
	}
	if !strings.Contains(reply, "($-1200.00)") {
		t.Errorf("transaction amount formatting: %q", reply)
	}
}

func TestSavingsOfferThenAffirmative(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-savings"
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "tell me about savings accounts")
	if !strings.Contains(reply, "High-Yield Savings") {
		t.Fatalf("savings reply: %q", reply)
	}

	reply = turn(t, f, id, "yes")
	if !strings.Contains(reply, SavingsApplicationLink) {
		t.Errorf("affirmative after offer should link application, got %q", reply)
	}

	// The offer is consumed; a second bare yes has nothing to bind to.
	reply = turn(t, f, id, "yes")
	if strings.Contains(reply, SavingsApplicationLink) {
		t.Errorf("second affirmative should not re-fire the offer: %q", reply)
	}
}

func TestBareAffirmativeWithoutOffer(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-yes"
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "yes")
	if strings.Contains(reply, SavingsApplicationLink) {
		t.Errorf("affirmative without a pending offer linked the application: %q", reply)
	}
	if !strings.Contains(reply, "Anything else") {
		t.Errorf("affirmative without offer should fall through, got %q", reply)
	}
}

func TestExitDeclinedRestoresStep(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-exit-no"
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "bye")
	if reply != replyConfirmExit {
		t.Fatalf("exit intent: got %q, want %q", reply, replyConfirmExit)
	}
	if got := stepOf(t, f, id); got != models.StepConfirmExit {
		t.Fatalf("exit intent: step = %q, want %q", got, models.StepConfirmExit)
	}

	reply = turn(t, f, id, "no")
	if !strings.Contains(reply, replyStillConnected) {
		t.Errorf("declined exit: got %q", reply)
	}
	if got := stepOf(t, f, id); got != models.StepVerifiedExisting {
		t.Errorf("declined exit: step = %q, want %q", got, models.StepVerifiedExisting)
	}
}

func TestExitConfirmedResetsSession(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-exit-yes"
	verifyExisting(t, f, id)

	turn(t, f, id, "thanks, that's all")
	reply := turn(t, f, id, "yes")
	if reply != replySessionClosed {
		t.Errorf("confirmed exit: got %q, want %q", reply, replySessionClosed)
	}
	if got := stepOf(t, f, id); got != models.StepStart {
		t.Errorf("confirmed exit: step = %q, want %q", got, models.StepStart)
	}

	// The reset session starts over from the greeting.
	reply = turn(t, f, id, "hello again")
	if !strings.Contains(reply, "existing customer") {
		t.Errorf("restart after close: got %q", reply)
	}
}

func TestUploadKeyword(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-upload"
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "upload")
	if reply != replyUploadInstruction {
		t.Errorf("upload keyword: got %q, want %q", reply, replyUploadInstruction)
	}
}

func TestDocumentQuestionUsesAttachedContext(t *testing.T) {
	answerer := &fakeAnswerer{answer: "The policy covers water damage."}
	f, _ := newTestFlow(t, answerer)
	id := "s-doc"

	// Attachment before verification must survive into the authenticated step.
	if _, err := f.AttachDocument(context.Background(), id, "policy.txt", strings.NewReader("Policy: water damage is covered up to $5,000.")); err != nil {
		t.Fatalf("AttachDocument failed: %v", err)
	}
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "what does my policy cover?")
	if !strings.Contains(reply, "The policy covers water damage.") {
		t.Errorf("document answer: got %q", reply)
	}
	if answerer.calls != 1 {
		t.Fatalf("answer engine calls = %d, want 1", answerer.calls)
	}
	if !strings.Contains(answerer.lastContext, "water damage is covered") {
		t.Errorf("answer engine context missing document text: %q", answerer.lastContext)
	}
	if answerer.lastQuestion != "what does my policy cover?" {
		t.Errorf("answer engine question = %q", answerer.lastQuestion)
	}
}

func TestDocumentRouteSkippedWithoutAnswerer(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-noai"
	if _, err := f.AttachDocument(context.Background(), id, "notes.txt", strings.NewReader("some notes")); err != nil {
		t.Fatalf("AttachDocument failed: %v", err)
	}
	verifyExisting(t, f, id)

	reply := turn(t, f, id, "what do my notes say?")
	if !strings.Contains(reply, "Anything else") {
		t.Errorf("without an answer engine the question should fall through, got %q", reply)
	}
}

func TestAnswerEngineFailureResetsSession(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("model unavailable")}
	f, _ := newTestFlow(t, answerer)
	id := "s-fail"
	verifyExisting(t, f, id)
	if _, err := f.AttachDocument(context.Background(), id, "doc.txt", strings.NewReader("content")); err != nil {
		t.Fatalf("AttachDocument failed: %v", err)
	}

	reply := turn(t, f, id, "summarize the attachment")
	if reply != replyInternalError {
		t.Errorf("engine failure: got %q, want %q", reply, replyInternalError)
	}
	if got := stepOf(t, f, id); got != models.StepStart {
		t.Errorf("engine failure: step = %q, want %q", got, models.StepStart)
	}
}

func TestProcessMessageRejectsEmptySessionID(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	if _, _, err := f.ProcessMessage(context.Background(), "", "hi"); !errors.Is(err, models.ErrEmptySessionID) {
		t.Errorf("empty session ID: err = %v, want %v", err, models.ErrEmptySessionID)
	}
}

func TestProcessMessageReportsPostTurnStep(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	id := "s-step-report"

	_, step, err := f.ProcessMessage(context.Background(), id, "hi")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if step != models.StepChooseType {
		t.Errorf("reported step = %q, want %q", step, models.StepChooseType)
	}
	if stored := stepOf(t, f, id); stored != step {
		t.Errorf("reported step %q disagrees with stored step %q", step, stored)
	}

	_, step, err = f.ProcessMessage(context.Background(), id, "existing")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if step != models.StepAwaitPhone {
		t.Errorf("reported step = %q, want %q", step, models.StepAwaitPhone)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	f, _ := newTestFlow(t, nil)
	verifyExisting(t, f, "s-a")

	// A second session starts from scratch regardless of the first.
	reply := turn(t, f, "s-b", "hello")
	if !strings.Contains(reply, "existing customer") {
		t.Errorf("second session opening: got %q", reply)
	}
	if got := stepOf(t, f, "s-a"); got != models.StepVerifiedExisting {
		t.Errorf("first session disturbed: step = %q", got)
	}
}

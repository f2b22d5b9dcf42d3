package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/net"
	"github.com/steelfront/server/internal/net/packet"
)

const (
	joinFailBadCredentials = "bad credentials"
	joinFailBanned         = "account banned"
	joinFailAlreadyOnline  = "account already online"
	joinFailInternal       = "internal error"
)

// HandleJoin processes CJoin: [opcode][account\0][password\0].
// On success the session is bound to a player id, registered on the ledger,
// and answered with SJoinOK; from then on it receives snapshots.
func HandleJoin(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountName := strings.ToLower(r.ReadS())
	password := r.ReadS()
	if accountName == "" {
		sendJoinFail(sess, joinFailBadCredentials)
		return
	}

	if deps.AccountRepo != nil {
		if !authenticate(sess, deps, accountName, password) {
			return
		}
	}

	player, created := deps.Roster.PlayerFor(accountName)
	if created {
		ec := deps.Config.Game
		deps.Ledger.AddPlayer(player, ec.StartStockpile, ec.MaxStockpile, ec.BaseIncome)
	}

	sess.AccountName = accountName
	sess.SetPlayer(player)
	sess.SetState(packet.StateAuthenticated)

	w := packet.NewWriterWithOpcode(packet.SJoinOK)
	w.WriteD(int32(player))
	sess.Send(w.Bytes())

	deps.Log.Info(fmt.Sprintf("player joined  account=%s  player=%d", accountName, player))
}

// authenticate validates or auto-creates the account. Returns false after
// sending the failure packet.
func authenticate(sess *net.Session, deps *Deps, accountName, password string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := deps.AccountRepo.Load(ctx, accountName)
	if err != nil {
		deps.Log.Error("account load failed", zap.Error(err))
		sendJoinFail(sess, joinFailInternal)
		return false
	}

	if account == nil {
		if !deps.Config.Server.AutoCreateAccounts {
			sendJoinFail(sess, joinFailBadCredentials)
			return false
		}
		account, err = deps.AccountRepo.Create(ctx, accountName, password, sess.IP)
		if err != nil {
			deps.Log.Error("account create failed", zap.Error(err))
			sendJoinFail(sess, joinFailInternal)
			return false
		}
		deps.Log.Info(fmt.Sprintf("auto-created account  account=%s", accountName))
	} else if !deps.AccountRepo.ValidatePassword(account.PasswordHash, password) {
		sendJoinFail(sess, joinFailBadCredentials)
		return false
	}

	if account.Banned {
		deps.Log.Info(fmt.Sprintf("banned account join attempt  account=%s", accountName))
		sendJoinFail(sess, joinFailBanned)
		return false
	}

	if err := deps.AccountRepo.UpdateLastActive(ctx, accountName, sess.IP); err != nil {
		deps.Log.Error("last-active update failed", zap.Error(err))
	}
	return true
}

func sendJoinFail(sess *net.Session, reason string) {
	w := packet.NewWriterWithOpcode(packet.SJoinFail)
	w.WriteS(reason)
	sess.Send(w.Bytes())
}

// HandlePing answers CPing with SPong, echoing the client's payload.
func HandlePing(sess *net.Session, r *packet.Reader, _ *Deps) {
	w := packet.NewWriterWithOpcode(packet.SPong)
	w.WriteQ(r.ReadQ())
	sess.Send(w.Bytes())
}

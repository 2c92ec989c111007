package shell

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("movepicker_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

func pushError(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

// pushJSON hands v to the script as a Lua table.
func pushJSON(L *lua.LState, v any) int {
	bts, err := json.Marshal(v)
	if err != nil {
		return pushError(L, err)
	}
	lv, err := luajson.Decode(L, bts)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lv)
	return 1
}

func Exec(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields(lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-exec")
		return pushError(L, err)
	}
	r, err := sc.dispatch(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-exec")
		return pushError(L, err)
	}
	if r == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Position(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	args := []string{"startpos"}
	if lv != "" && lv != "startpos" {
		args = []string{"fen", lv}
	}
	r, err := sc.position(&shellcmd{cmd: "position", args: args, options: CmdOptions{}})
	if err != nil {
		log.Err(err).Msg("error-executing-position")
		return pushError(L, err)
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Pick(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("pick " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-pick")
		return pushError(L, err)
	}
	picked, err := sc.pickAll(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-pick")
		return pushError(L, err)
	}
	if len(picked) == 0 {
		L.Push(L.NewTable())
		return 1
	}
	return pushJSON(L, picked)
}

func Bench(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("bench " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-bench")
		return pushError(L, err)
	}
	rep, err := sc.runBench(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-bench")
		return pushError(L, err)
	}
	return pushJSON(L, rep)
}

func (sc *ShellController) newLuaState() *lua.LState {
	L := lua.NewState()
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("movepicker_shell", lsc)
	L.SetGlobal("movepicker_exec", L.NewFunction(Exec))
	L.SetGlobal("movepicker_position", L.NewFunction(Position))
	L.SetGlobal("movepicker_pick", L.NewFunction(Pick))
	L.SetGlobal("movepicker_bench", L.NewFunction(Bench))
	return L
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	L := sc.newLuaState()
	defer L.Close()

	if err := L.DoFile(cmd.args[0]); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}

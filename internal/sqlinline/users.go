package sqlinline

const QInsertUser = `--sql e37b5eb3-0276-4e8b-ab96-c9f7214f283b
insert into users (
    id,
    email,
    name,
    role,
    plan,
    connection_code,
    password_hash,
    donation_count,
    contact_count,
    created_at,
    updated_at
) values (
    gen_random_uuid(),
    lower($1::text),
    $2::text,
    $3::text,
    $4::text,
    upper($5::text),
    $6::bytea,
    0,
    0,
    now(),
    now()
)
returning id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at;
`

const QSelectUserByID = `--sql b5a0da4d-2892-4fb7-aeef-0d44649398f9
select id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql 20f8b111-6ede-4060-936c-41b2929d6a37
select id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at
from users
where email = lower($1::text)
limit 1;
`

const QSelectUserByConnectionCode = `--sql a1893949-cf68-4ca2-830a-51fc01736dde
select id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at
from users
where connection_code = upper($1::text)
limit 1;
`

const QListUsers = `--sql e51c31f8-d1a7-46d8-b50e-724cfc4c4cec
select id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at
from users
order by created_at desc, id desc;
`

const QUpdateUserPlan = `--sql b6f366d2-8544-46e6-90be-7757ea3f0a71
update users
set plan = $2::text,
    updated_at = now()
where id = $1::uuid
returning id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at;
`

const QUpdateUserRole = `--sql b2ff93c0-8830-440d-b3d4-510640ec8055
update users
set role = $2::text,
    updated_at = now()
where id = $1::uuid
returning id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at;
`

// QUpdateUserName also refreshes the owner name denormalised onto donations.
const QUpdateUserName = `--sql 789c6d8e-0fa7-41fb-9036-ff83a8871c1b
with renamed as (
    update users
    set name = $2::text,
        updated_at = now()
    where id = $1::uuid
    returning id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at
),
relabelled as (
    update donations d
    set owner_name = (select name from renamed)
    where d.owner_id = (select id from renamed)
    returning d.id
)
select id, email, name, role, plan, donation_count, contact_count, connection_code, password_hash, created_at, updated_at
from renamed;
`

// QDeleteUser removes the user and every donation it owns in one statement.
const QDeleteUser = `--sql 693aa6b1-d129-4373-8e52-28c0043dd527
with removed_donations as (
    delete from donations
    where owner_id = $1::uuid
    returning id
),
removed_user as (
    delete from users
    where id = $1::uuid
    returning id
)
select
    (select count(*) from removed_user)::int as users,
    (select count(*) from removed_donations)::int as donations;
`

// QConsumeContact locks the user row, then increments contact_count only for
// free users still under the limit. No row means the user does not exist.
const QConsumeContact = `--sql 47d2df4a-cdea-4ad3-b71b-0db591abb4eb
with
cur as (
    select id, plan, contact_count
    from users
    where id = $1::uuid
    for update
),
consumed as (
    update users u
    set contact_count = u.contact_count + 1,
        updated_at = now()
    from cur
    where u.id = cur.id
      and cur.plan = 'free'
      and cur.contact_count < $2::int
    returning u.contact_count
)
select
    cur.plan,
    coalesce((select contact_count from consumed), cur.contact_count) as contact_count,
    exists(select 1 from consumed) as consumed
from cur;
`
